// Package correlation links a scan against historical records to surface
// recurring payloads and likely variants of known threats.
package correlation

import (
	"fmt"
	"math"

	"smartguard/internal/history"
	"smartguard/pkg/types"
)

// variantRiskDelta is the maximum risk score distance for two records to
// count as variants of the same threat.
const variantRiskDelta = 5.0

// variantEntropyDelta is the maximum ML-layer entropy distance for the
// structural similarity check.
const variantEntropyDelta = 0.05

// maxSimilarThreats caps the matches returned by FindSimilarThreats.
const maxSimilarThreats = 5

// SimilarThreat is one historical record related to a queried hash or
// risk level.
type SimilarThreat struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	Filename  string  `json:"filename"`
	Timestamp string  `json:"timestamp"`
	RiskScore float64 `json:"risk_score"`
}

// Correlator reads scan history and reports correlation signals.
type Correlator struct {
	store history.Store
}

func NewCorrelator(store history.Store) *Correlator {
	return &Correlator{store: store}
}

// FindCorrelations checks the current scan against history and returns
// human-readable correlation signals. History read failures yield an empty
// result rather than an error; correlation is advisory.
func (c *Correlator) FindCorrelations(current *types.ScanRecord) []string {
	var correlations []string
	if current == nil {
		return correlations
	}
	records, err := c.store.History(0)
	if err != nil {
		return correlations
	}

	for _, rec := range records {
		if rec.SHA256 == current.SHA256 && rec.ID != current.ID {
			correlations = append(correlations, "Recurrent Hash: Exact same payload detected previously.")
			break
		}
	}

	currentML := layerEntropy(current.Layers)
	if currentML != nil {
		for _, rec := range records {
			if rec.Detection != types.ClassMalicious {
				continue
			}
			recML := layerEntropy(rec.Layers)
			if recML == nil {
				continue
			}
			entropyDiff := math.Abs(*recML - *currentML)
			riskDiff := math.Abs(rec.RiskScore - current.RiskScore)
			if entropyDiff < variantEntropyDelta && riskDiff < variantRiskDelta && rec.SHA256 != current.SHA256 {
				correlations = append(correlations,
					fmt.Sprintf("Heuristic Variant: Structural similarity to known threat %s", rec.ID))
				break
			}
		}
	}

	return dedupe(correlations)
}

// FindSimilarThreats returns historical records matching a hash exactly or
// landing within the variant risk window, newest-first, capped at 5.
func (c *Correlator) FindSimilarThreats(sha256 string, riskScore float64) []SimilarThreat {
	var similar []SimilarThreat
	records, err := c.store.History(0)
	if err != nil {
		return similar
	}

	for _, rec := range records {
		if len(similar) >= maxSimilarThreats {
			break
		}
		if rec.SHA256 == sha256 {
			similar = append(similar, SimilarThreat{
				Type:      "Exact Match",
				ID:        rec.ID,
				Filename:  rec.Filename,
				Timestamp: rec.Timestamp,
				RiskScore: rec.RiskScore,
			})
			continue
		}
		if math.Abs(rec.RiskScore-riskScore) < variantRiskDelta {
			similar = append(similar, SimilarThreat{
				Type:      "Risk Variant",
				ID:        rec.ID,
				Filename:  rec.Filename,
				Timestamp: rec.Timestamp,
				RiskScore: rec.RiskScore,
			})
		}
	}
	return similar
}

func layerEntropy(layers map[string]*types.LayerResult) *float64 {
	ml, ok := layers["ml"]
	if !ok || ml == nil {
		return nil
	}
	return &ml.Entropy
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
