package scanners

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"smartguard/pkg/logging"
	"smartguard/pkg/types"
)

// patternCategory groups related indicators; each matched pattern in a
// category adds perMatch points.
type patternCategory struct {
	name     string
	perMatch float64
	rules    []string
	compiled []*regexp.Regexp
}

var heuristicCategories = []*patternCategory{
	{
		name:     "JavaScript / Scripting",
		perMatch: 20,
		rules:    []string{`<script`, `javascript:`, `eval\(`, `setTimeout\(`, `document\.location`},
	},
	{
		name:     "Shell / OS Access",
		perMatch: 20,
		rules:    []string{`cmd\.exe`, `/bin/sh`, `/bin/bash`, `powershell`, `shell_exec`, `system\(`},
	},
	{
		name:     "Obfuscation Indicators",
		perMatch: 20,
		rules:    []string{`base64`, `char\(`, `str_replace`, `\\u[0-9a-fA-F]{4}`, `0x[0-9a-fA-F]{2,}`},
	},
	{
		name:     "Web Communication",
		perMatch: 20,
		rules:    []string{`http://`, `https://`, `ftp://`, `socket\(`},
	},
	{
		name:     "PDF Active Content",
		perMatch: 20,
		rules:    []string{`/JavaScript`, `/OpenAction`, `/Launch`, `/EmbeddedFile`},
	},
	{
		name:     "Malicious Intent",
		perMatch: 25,
		rules:    []string{`mimikatz`, `metasploit`, `meterpreter`, `cobalt\s*strike`, `nc\s+-e\b`, `reverse\s*shell`},
	},
}

var heuristicCompileOnce sync.Once

func compileHeuristicRules() {
	heuristicCompileOnce.Do(func() {
		for _, cat := range heuristicCategories {
			cat.compiled = make([]*regexp.Regexp, 0, len(cat.rules))
			for _, rule := range cat.rules {
				re, err := regexp.Compile(`(?i)` + rule)
				if err != nil {
					logging.ErrorLogger.Printf("Failed to compile heuristic rule '%s': %v", rule, err)
					continue
				}
				cat.compiled = append(cat.compiled, re)
			}
		}
	})
}

// HeuristicScanner is the third scanning layer: categorized regex matching
// over permissively decoded content plus the filename.
type HeuristicScanner struct{}

func NewHeuristicScanner() *HeuristicScanner {
	compileHeuristicRules()
	return &HeuristicScanner{}
}

// Scan counts matched patterns per category across content and filename.
// Invalid byte sequences are dropped, never an error.
func (s *HeuristicScanner) Scan(data []byte, filename string) *types.LayerResult {
	result := &types.LayerResult{Layer: "Heuristic"}

	text := strings.ToValidUTF8(string(data), "") + "\n" + filename

	riskScore := 0.0
	for _, cat := range heuristicCategories {
		matches := 0
		for _, re := range cat.compiled {
			if re.MatchString(text) {
				matches++
			}
		}
		if matches > 0 {
			result.Threats = append(result.Threats,
				fmt.Sprintf("Heuristic Match: Found %d %s signals", matches, cat.name))
			riskScore += cat.perMatch * float64(matches)
		}
	}

	if riskScore > 100 {
		riskScore = 100
	}
	result.RiskScore = riskScore
	return result
}
