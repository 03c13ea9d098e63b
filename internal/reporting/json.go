package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"smartguard/pkg/types"
)

// SimpleResult is the flattened per-file row used by the JSON report.
type SimpleResult struct {
	Filename  string  `json:"filename"`
	Type      string  `json:"type"`
	SHA256    string  `json:"sha256"`
	Detection string  `json:"detection"`
	Severity  string  `json:"severity"`
	RiskScore float64 `json:"risk_score"`
	Threats   int     `json:"threats"`
}

type JSONReporter struct{}

func NewJSONReporter() *JSONReporter {
	return &JSONReporter{}
}

// Generate writes the verdicts as a JSON document. An empty outputPath
// defaults to data/scan_results.json.
func (r *JSONReporter) Generate(verdicts []*types.ScanVerdict, outputPath string) error {
	if outputPath == "" {
		dataDir := "data"
		if _, err := os.Stat(dataDir); os.IsNotExist(err) {
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return err
			}
		}
		outputPath = filepath.Join(dataDir, "scan_results.json")
	}

	simplified := make([]SimpleResult, 0, len(verdicts))
	for _, v := range verdicts {
		fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(v.Filename)), ".")
		simplified = append(simplified, SimpleResult{
			Filename:  filepath.Base(v.Filename),
			Type:      fileType,
			SHA256:    v.SHA256,
			Detection: string(v.Detection),
			Severity:  string(v.Severity),
			RiskScore: v.RiskScore,
			Threats:   len(v.AllThreats),
		})
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	// Wrapped in a map so the consumer side can extend the envelope later.
	finalResult := map[string]interface{}{
		"results": simplified,
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(finalResult)
}
