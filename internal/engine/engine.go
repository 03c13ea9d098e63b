// Package engine orchestrates the scanning layers into a final verdict.
package engine

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"smartguard/internal/features"
	"smartguard/internal/scanners"
	"smartguard/pkg/types"
)

// fragmentationChunks is the number of slices used for entropy
// fragmentation analysis.
const fragmentationChunks = 10

// fragmentationMinSize short-circuits fragmentation for buffers too small
// to produce meaningful per-chunk entropy.
const fragmentationMinSize = 1024

// layerHighFloor is the score forced when a single layer crosses the
// high-confidence cutoff, preventing dilution by the weighted average.
const layerHighFloor = 71

// Engine runs the three scanning layers plus fragmentation analysis and
// aggregates their scores into a ScanVerdict. ScanFile is a pure function
// of its inputs; concurrent calls need no coordination.
type Engine struct {
	config    *types.Config
	signature *scanners.SignatureScanner
	ml        *scanners.MLScanner
	heuristic *scanners.HeuristicScanner
}

// NewEngine builds the scanning pipeline. A nil ensemble leaves the ML
// layer in baseline entropy-band mode.
func NewEngine(cfg *types.Config, ens scanners.ThreatEnsemble) (*Engine, error) {
	sig, err := scanners.NewSignatureScanner(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing signature scanner: %w", err)
	}
	return &Engine{
		config:    cfg,
		signature: sig,
		ml:        scanners.NewMLScanner(ens),
		heuristic: scanners.NewHeuristicScanner(),
	}, nil
}

// ScanFile runs every layer over the buffer and aggregates:
//
//  1. weighted sum of the four layer scores
//  2. max-impact override when a single layer is highly confident
//  3. filename-intent boost per matched keyword
//  4. clamp to [0,100]
//  5. benign-bias cap for trivial text files with zero hits
func (e *Engine) ScanFile(data []byte, filename string) *types.ScanVerdict {
	start := time.Now()

	sigResult := e.signature.Scan(data, filename)
	mlResult := e.ml.Scan(data)
	heuResult := e.heuristic.Scan(data, filename)
	fragResult := e.entropyFragmentation(data)

	sc := e.config.Scoring
	score := sigResult.RiskScore*sc.Weights.Signature +
		mlResult.RiskScore*sc.Weights.ML +
		heuResult.RiskScore*sc.Weights.Heuristic +
		fragResult.RiskScore*sc.Weights.Fragmentation

	maxLayer := math.Max(math.Max(sigResult.RiskScore, mlResult.RiskScore),
		math.Max(heuResult.RiskScore, fragResult.RiskScore))
	if maxLayer >= sc.Thresholds.LayerCritical {
		score = math.Max(score, 0.95*maxLayer)
	} else if maxLayer >= sc.Thresholds.LayerHigh {
		score = math.Max(score, layerHighFloor)
	}

	// Keyword accumulation is uncapped; the clamp below bounds the total.
	var filenameBonus float64
	var intentHits []string
	lowerName := strings.ToLower(filename)
	for _, keyword := range sc.IntentKeywords {
		if strings.Contains(lowerName, keyword) {
			filenameBonus += sc.FilenameBonus
			intentHits = append(intentHits, keyword)
		}
	}
	score += filenameBonus

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	if filenameBonus == 0 && len(sigResult.Threats) == 0 && len(heuResult.Threats) == 0 &&
		e.isBenignExtension(filename) && score > sc.BenignCap {
		score = sc.BenignCap
	}

	confidence := mlResult.Confidence * 100

	explanations := e.buildExplanations(sigResult, mlResult, heuResult, fragResult, intentHits, score, confidence)

	classification := types.Classify(score, sc.Thresholds)
	severity := types.SeverityForScore(score, sc.Thresholds)
	if classification == types.ClassClean {
		severity = types.SeverityLow
		explanations = append(explanations, "File appears benign with no significant risk indicators.")
	}

	return &types.ScanVerdict{
		Filename:   filename,
		FileSizeKB: roundTo(float64(len(data))/1024, 2),
		SHA256:     sigResult.SHA256,
		Detection:  classification,
		Severity:   severity,
		RiskScore:  roundTo(score, 1),
		Confidence: roundTo(confidence, 1),
		ScanTimeMS: roundTo(float64(time.Since(start).Microseconds())/1000, 2),
		Timestamp:  time.Now().Format("2006-01-02 15:04:05"),
		Layers: map[string]*types.LayerResult{
			"signature":     sigResult,
			"ml":            mlResult,
			"heuristic":     heuResult,
			"fragmentation": fragResult,
		},
		AllThreats:    dedupe(append(append([]string{}, sigResult.Threats...), heuResult.Threats...)),
		RiskBreakdown: explanations,
	}
}

// entropyFragmentation detects localized entropy spikes that suggest an
// encrypted or obfuscated payload embedded in an otherwise-normal file.
func (e *Engine) entropyFragmentation(data []byte) *types.LayerResult {
	result := &types.LayerResult{Layer: "Fragmentation"}
	if len(data) < fragmentationMinSize {
		return result
	}

	entropies := features.ChunkEntropies(data, fragmentationChunks)
	variance, spread := features.EntropyStats(entropies)

	score := 0.0
	if variance > 1.5 {
		result.Threats = append(result.Threats,
			fmt.Sprintf("Non-Uniform Entropy (Var: %.2f) - Potential Obfuscated Payload", variance))
		score += 40
	}
	if spread > 3.0 {
		result.Threats = append(result.Threats,
			"Extreme Entropy Divergence - Likely Encrypted Shellcode Fragment")
		score += 50
	}

	if score > 100 {
		score = 100
	}
	result.RiskScore = score
	return result
}

func (e *Engine) buildExplanations(sig, ml, heu, frag *types.LayerResult, intentHits []string, score, confidence float64) []string {
	var explanations []string
	if sig.RiskScore > 0 {
		explanations = append(explanations,
			fmt.Sprintf("Signature Match (%.0f/100): Known threat pattern detected.", sig.RiskScore))
	}
	if ml.RiskScore > 60 {
		explanations = append(explanations,
			fmt.Sprintf("Neural Anomaly (%.0f/100): Structure resembles known malware families.", ml.RiskScore))
	}
	if heu.RiskScore > 50 {
		explanations = append(explanations,
			fmt.Sprintf("Heuristic Flag (%.0f/100): Suspicious API calls or offsets identified.", heu.RiskScore))
	}
	if frag.RiskScore > 30 {
		for _, signal := range frag.Threats {
			explanations = append(explanations, "Entropy Warning: "+signal)
		}
	}
	for _, keyword := range intentHits {
		explanations = append(explanations,
			fmt.Sprintf("Filename Intent: suspicious keyword %q in file name.", keyword))
	}
	if score > 40 && score < 70 && confidence < 70 {
		explanations = append(explanations,
			"Low Confidence: AI detection is uncertain; manual review recommended.")
	}
	return explanations
}

func (e *Engine) isBenignExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, benign := range e.config.Scoring.BenignExtensions {
		if ext == strings.ToLower(benign) {
			return true
		}
	}
	return false
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func roundTo(v float64, digits int) float64 {
	m := math.Pow(10, float64(digits))
	return math.Round(v*m) / m
}
