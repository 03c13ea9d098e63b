package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"smartguard/pkg/embedded"
	"smartguard/pkg/logging"
	"smartguard/pkg/types"
)

// LoadConfig reads configuration with embedded defaults first, then an
// on-disk file, and falls back to compiled-in defaults when neither parses.
func LoadConfig(configPath string) (*types.Config, error) {
	var configData []byte
	var err error

	if configPath != "" {
		configData, err = os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			logging.WarnLogger.Printf("Config file %s not found, trying embedded defaults", configPath)
			configData = nil
		}
	}

	if configData == nil {
		configData, err = embedded.GetFileContent("config.yaml")
		if err != nil {
			logging.WarnLogger.Printf("No embedded config available, using built-in defaults: %v", err)
			return GetDefaultConfig(), nil
		}
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(configData, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetDefaultConfig returns the shipped defaults. These mirror the embedded
// config.yaml so behavior is identical with or without the embed.
func GetDefaultConfig() *types.Config {
	return &types.Config{
		Scoring: types.Scoring{
			Weights: types.LayerWeights{
				Signature:     0.35,
				ML:            0.25,
				Heuristic:     0.25,
				Fragmentation: 0.15,
			},
			Thresholds: types.ScoringThresholds{
				Malicious:     70,
				Suspicious:    40,
				Critical:      90,
				LayerCritical: 90,
				LayerHigh:     75,
			},
			FilenameBonus: 40,
			BenignCap:     10,
			IntentKeywords: []string{
				"trojan", "virus", "malware", "exploit", "backdoor",
				"keylogger", "ransomware", "rootkit", "payload", "hack",
			},
			SuspiciousExtensions: []string{".exe", ".bat", ".sh", ".py", ".js", ".vbs"},
			BenignExtensions:     []string{".txt", ".md", ".log"},
		},
		Ensemble: types.EnsembleWeights{
			RF:      0.4,
			Pattern: 0.4,
			Anomaly: 0.2,
		},
		Prediction: types.Prediction{
			ConfidenceThreshold: 0.7,
			SmoothingWindow:     0,
			NormalClassNames:    []string{"normal", "benign"},
		},
		DataPaths: types.DataPaths{
			Signatures: "data/signatures",
			Models:     "data/models",
		},
		Performance: types.Performance{
			Concurrency: 8,
		},
		Output: types.Output{
			Format: "console",
		},
		History: types.History{
			Backend:    "json",
			Path:       "data/scan_history.json",
			MaxRecords: 100,
		},
		Server: types.Server{
			Listen:   ":6528",
			AlertDir: "logs",
		},
	}
}

func validateConfig(cfg *types.Config) error {
	w := cfg.Scoring.Weights
	if w.Signature < 0 || w.ML < 0 || w.Heuristic < 0 || w.Fragmentation < 0 {
		return fmt.Errorf("scoring weights must be non-negative")
	}
	if w.Signature+w.ML+w.Heuristic+w.Fragmentation == 0 {
		return fmt.Errorf("scoring weights must not all be zero")
	}
	t := cfg.Scoring.Thresholds
	if t.Suspicious > t.Malicious {
		return fmt.Errorf("suspicious threshold %.1f exceeds malicious threshold %.1f", t.Suspicious, t.Malicious)
	}
	if cfg.Performance.Concurrency < 0 {
		return fmt.Errorf("concurrency must be non-negative")
	}
	return nil
}
