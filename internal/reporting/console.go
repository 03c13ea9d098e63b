package reporting

import (
	"fmt"
	"os"
	"sort"

	"smartguard/pkg/types"
)

type ConsoleReporter struct{}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{}
}

// Generate prints the verdicts to stdout, non-clean files first with their
// per-layer breakdown, followed by a severity summary.
func (r *ConsoleReporter) Generate(verdicts []*types.ScanVerdict, outputPath string) error {
	if outputPath != "" {
		fmt.Fprintf(os.Stderr, "Warning: Console reporter does not support output path '%s'. Printing to stdout.\n", outputPath)
	}

	// Sort by filename for consistent output
	sort.Slice(verdicts, func(i, j int) bool {
		return verdicts[i].Filename < verdicts[j].Filename
	})

	fmt.Println("\n--- Scan Report ---")
	severityCounts := make(map[types.Severity]int)
	detectionCounts := make(map[types.Classification]int)

	for _, v := range verdicts {
		severityCounts[v.Severity]++
		detectionCounts[v.Detection]++

		if v.Detection == types.ClassClean {
			continue
		}

		fmt.Printf("[%s] %s (Risk: %.1f/100, Severity: %s, Time: %.2fms)\n",
			v.Detection, v.Filename, v.RiskScore, v.Severity, v.ScanTimeMS)

		layerOrder := []string{"signature", "ml", "heuristic", "fragmentation"}
		for _, name := range layerOrder {
			layer, ok := v.Layers[name]
			if !ok || layer == nil {
				continue
			}
			fmt.Printf("  -> %-14s score %.1f\n", layer.Layer, layer.RiskScore)
			for _, threat := range layer.Threats {
				fmt.Printf("     - %s\n", threat)
			}
		}
		for _, reason := range v.RiskBreakdown {
			fmt.Printf("  -> %s\n", reason)
		}
	}

	fmt.Println("\n--- Summary ---")
	fmt.Printf("Total Files Scanned: %d\n", len(verdicts))
	fmt.Printf("Clean:               %d\n", detectionCounts[types.ClassClean])
	fmt.Printf("Suspicious:          %d\n", detectionCounts[types.ClassSuspicious])
	fmt.Printf("Malicious:           %d\n", detectionCounts[types.ClassMalicious])
	fmt.Printf("Severity Levels Found:\n")
	levels := []types.Severity{types.SeverityCritical, types.SeverityHigh, types.SeverityMedium, types.SeverityLow}
	for _, level := range levels {
		if count, ok := severityCounts[level]; ok && count > 0 {
			fmt.Printf("  - %-8s : %d\n", level, count)
		}
	}
	fmt.Println("--- End Report ---")

	return nil
}
