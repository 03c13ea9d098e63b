package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesEmbeddedDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 0.35, cfg.Scoring.Weights.Signature)
	assert.Equal(t, 0.25, cfg.Scoring.Weights.ML)
	assert.Equal(t, 70.0, cfg.Scoring.Thresholds.Malicious)
	assert.Equal(t, 40.0, cfg.Scoring.Thresholds.Suspicious)
	assert.Equal(t, 40.0, cfg.Scoring.FilenameBonus)
	assert.Equal(t, 10.0, cfg.Scoring.BenignCap)
	assert.Contains(t, cfg.Scoring.IntentKeywords, "trojan")
	assert.Equal(t, 0.4, cfg.Ensemble.RF)
	assert.Equal(t, "json", cfg.History.Backend)
	assert.Equal(t, ":6528", cfg.Server.Listen)
}

func TestLoadConfigDiskOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "scoring:\n  filename_bonus: 15\nperformance:\n  concurrency: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 15.0, cfg.Scoring.FilenameBonus)
	assert.Equal(t, 2, cfg.Performance.Concurrency)

	// Unset keys keep the shipped defaults.
	assert.Equal(t, 0.35, cfg.Scoring.Weights.Signature)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "scoring:\n  weights:\n    signature: -1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsInvertedThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "scoring:\n  thresholds:\n    malicious: 30\n    suspicious: 60\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidateDefaultConfig(t *testing.T) {
	assert.NoError(t, validateConfig(GetDefaultConfig()))
}
