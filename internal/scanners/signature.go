package scanners

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smartguard/pkg/embedded"
	"smartguard/pkg/logging"
	"smartguard/pkg/types"
)

// eicarSignature is the standard anti-malware test string. Its presence
// forces a maximum signature score while staying safe to handle.
var eicarSignature = []byte(`X5O!P%@AP[4\PZX54(P^)7CC)7}$EICAR-STANDARD-ANTIVIRUS-TEST-FILE!$H+H*`)

// magicEntry maps a file prefix to its true content type.
type magicEntry struct {
	prefix []byte
	mime   string
}

const executableMIME = "application/x-msdos-program (EXE)"

var magicTable = []magicEntry{
	{[]byte{0xff, 0xd8}, "image/jpeg"},
	{[]byte("\x89PNG\r\n\x1a\n"), "image/png"},
	{[]byte("ID3"), "audio/mpeg"},
	{[]byte("\x00\x00\x00\x18ftyp"), "video/mp4"},
	{[]byte("%PDF"), "application/pdf"},
	{[]byte("PK\x03\x04"), "application/zip/docx"},
	{[]byte("MZ"), executableMIME},
}

// executableExtensions are extensions where MZ content is expected.
var executableExtensions = map[string]bool{".exe": true, ".scr": true, ".com": true}

// SignatureScanner is the first scanning layer: content hashing, known-hash
// lookup, magic-number typing and extension checks.
type SignatureScanner struct {
	knownHashes    map[string]string
	suspiciousExts map[string]bool
}

// NewSignatureScanner loads the known-threat hash table from the embedded
// copy, falling back to the configured signatures directory on disk. A
// missing table leaves hash lookup inactive rather than failing.
func NewSignatureScanner(cfg *types.Config) (*SignatureScanner, error) {
	s := &SignatureScanner{
		knownHashes:    make(map[string]string),
		suspiciousExts: make(map[string]bool),
	}
	for _, ext := range cfg.Scoring.SuspiciousExtensions {
		s.suspiciousExts[strings.ToLower(ext)] = true
	}

	data, err := embedded.GetFileContent("data/signatures/known_hashes.txt")
	if err != nil {
		hashPath := filepath.Join(cfg.DataPaths.Signatures, "known_hashes.txt")
		data, err = os.ReadFile(hashPath)
		if err != nil {
			logging.WarnLogger.Printf("Known-hash table not found at %s: %v. Hash lookup will be inactive.", hashPath, err)
			return s, nil
		}
	}

	if err := s.loadHashes(data); err != nil {
		return nil, fmt.Errorf("parsing known-hash table: %w", err)
	}
	logging.InfoLogger.Printf("Loaded %d known threat hashes", len(s.knownHashes))
	return s, nil
}

func (s *SignatureScanner) loadHashes(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hash, name, _ := strings.Cut(line, " ")
		hash = strings.ToLower(hash)
		if len(hash) != 64 && len(hash) != 32 {
			logging.WarnLogger.Printf("Invalid hash format on line %d: %s", lineNum, hash)
			continue
		}
		if name == "" {
			name = "Unnamed Threat"
		}
		s.knownHashes[hash] = strings.TrimSpace(name)
	}
	return scanner.Err()
}

// Scan hashes the buffer, checks it against the known-threat table and the
// EICAR test string, and flags extension/content mismatches.
func (s *SignatureScanner) Scan(data []byte, filename string) *types.LayerResult {
	result := &types.LayerResult{Layer: "Signature"}
	riskScore := 0.0

	hasher := sha256.New()
	hasher.Write(data)
	result.SHA256 = hex.EncodeToString(hasher.Sum(nil))

	if bytes.Contains(data, eicarSignature) {
		result.Threats = append(result.Threats, "EICAR Standard Anti-Malware Test File Detected (Safe for testing)")
		riskScore += 100
	}

	if name, ok := s.knownHashes[result.SHA256]; ok {
		result.Threats = append(result.Threats, fmt.Sprintf("Known Malware Signature Match: %s", name))
		riskScore += 100
	}

	result.DetectedMIME = "unknown"
	for _, entry := range magicTable {
		if bytes.HasPrefix(data, entry.prefix) {
			result.DetectedMIME = entry.mime
			break
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if s.suspiciousExts[ext] {
		result.Threats = append(result.Threats, fmt.Sprintf("Suspicious file extension detected: %s", ext))
		riskScore += 30
	}

	if result.DetectedMIME == executableMIME && !executableExtensions[ext] {
		result.Threats = append(result.Threats, "Executable content hidden in non-executable extension (Stealth Technique)")
		riskScore += 60
	}

	if riskScore > 100 {
		riskScore = 100
	}
	result.RiskScore = riskScore
	return result
}
