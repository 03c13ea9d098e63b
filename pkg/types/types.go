package types

// Classification is the final three-way verdict for a scanned file.
type Classification string

const (
	ClassClean      Classification = "CLEAN"
	ClassSuspicious Classification = "SUSPICIOUS"
	ClassMalicious  Classification = "MALICIOUS"
)

// Severity buckets a verdict or alert for display and triage.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// LayerResult is the output of a single scanning layer. Layer-specific
// fields stay zero/empty for layers that do not produce them.
type LayerResult struct {
	Layer         string             `json:"layer"`
	RiskScore     float64            `json:"risk_score"`
	Threats       []string           `json:"threats,omitempty"`
	SHA256        string             `json:"sha256,omitempty"`
	DetectedMIME  string             `json:"detected_mime,omitempty"`
	Entropy       float64            `json:"entropy,omitempty"`
	Confidence    float64            `json:"confidence,omitempty"`
	Contributions map[string]float64 `json:"contributions,omitempty"`
}

// ScanVerdict is the aggregated result of one scan. Immutable once built;
// persistence is the caller's concern.
type ScanVerdict struct {
	Filename      string                  `json:"filename"`
	FileSizeKB    float64                 `json:"file_size_kb"`
	SHA256        string                  `json:"sha256"`
	Detection     Classification          `json:"detection"`
	Severity      Severity                `json:"severity"`
	RiskScore     float64                 `json:"risk_score"`
	Confidence    float64                 `json:"confidence"`
	ScanTimeMS    float64                 `json:"scan_time_ms"`
	Timestamp     string                  `json:"timestamp"`
	Layers        map[string]*LayerResult `json:"layers"`
	AllThreats    []string                `json:"all_threats"`
	RiskBreakdown []string                `json:"risk_breakdown"`
}

// ScanRecord is a ScanVerdict as persisted by the history store, with the
// caller-assigned id.
type ScanRecord struct {
	ID          string `json:"id"`
	IsMalicious bool   `json:"is_malicious"`
	ScanVerdict
}

// Analytics summarizes recent scan history.
type Analytics struct {
	TotalScans   int            `json:"total_scans"`
	ThreatRatio  float64        `json:"threat_ratio"`
	SeverityDist map[string]int `json:"severity_dist"`
}

// LayerWeights controls the engine's weighted aggregation across layers.
type LayerWeights struct {
	Signature     float64 `yaml:"signature"`
	ML            float64 `yaml:"ml"`
	Heuristic     float64 `yaml:"heuristic"`
	Fragmentation float64 `yaml:"fragmentation"`
}

// EnsembleWeights controls the hybrid detector's sub-model voting.
type EnsembleWeights struct {
	RF      float64 `yaml:"rf"`
	Pattern float64 `yaml:"pattern"`
	Anomaly float64 `yaml:"anomaly"`
}

// ScoringThresholds are the classification and override cutoffs. These are
// empirically chosen values carried as configuration, not logic.
type ScoringThresholds struct {
	Malicious     float64 `yaml:"malicious"`      // final score for MALICIOUS
	Suspicious    float64 `yaml:"suspicious"`     // final score for SUSPICIOUS
	Critical      float64 `yaml:"critical"`       // MALICIOUS score for Critical severity
	LayerCritical float64 `yaml:"layer_critical"` // single-layer score forcing 0.95*layer
	LayerHigh     float64 `yaml:"layer_high"`     // single-layer score forcing at least 71
}

// Scoring groups every tunable constant of the aggregation pipeline.
type Scoring struct {
	Weights              LayerWeights      `yaml:"weights"`
	Thresholds           ScoringThresholds `yaml:"thresholds"`
	FilenameBonus        float64           `yaml:"filename_bonus"`
	BenignCap            float64           `yaml:"benign_cap"`
	IntentKeywords       []string          `yaml:"intent_keywords"`
	SuspiciousExtensions []string          `yaml:"suspicious_extensions"`
	BenignExtensions     []string          `yaml:"benign_extensions"`
}

// DataPaths locates on-disk data files overriding the embedded copies.
type DataPaths struct {
	Signatures string `yaml:"signatures"`
	Models     string `yaml:"models"`
}

// Performance holds scan parallelism settings.
type Performance struct {
	Concurrency int `yaml:"concurrency"`
}

// Output selects the default report format for CLI scans.
type Output struct {
	Format string `yaml:"format"` // console, json
}

// History configures the scan-history store.
type History struct {
	Backend    string `yaml:"backend"` // json, pebble
	Path       string `yaml:"path"`
	MaxRecords int    `yaml:"max_records"`
}

// Server holds HTTP API settings.
type Server struct {
	Listen   string `yaml:"listen"`
	AlertDir string `yaml:"alert_dir"`
}

// Prediction configures the network-traffic Predictor wrapper.
type Prediction struct {
	ConfidenceThreshold float64  `yaml:"confidence_threshold"`
	SmoothingWindow     int      `yaml:"smoothing_window"`
	NormalClassNames    []string `yaml:"normal_class_names"`
}

// Config is the full application configuration.
type Config struct {
	Scoring     Scoring         `yaml:"scoring"`
	Ensemble    EnsembleWeights `yaml:"ensemble"`
	Prediction  Prediction      `yaml:"prediction"`
	DataPaths   DataPaths       `yaml:"data_paths"`
	Performance Performance     `yaml:"performance"`
	Output      Output          `yaml:"output"`
	History     History         `yaml:"history"`
	Server      Server          `yaml:"server"`
}

// SeverityForScore maps a final risk score to verdict severity.
func SeverityForScore(score float64, t ScoringThresholds) Severity {
	switch {
	case score > t.Critical:
		return SeverityCritical
	case score >= t.Malicious:
		return SeverityHigh
	case score >= t.Suspicious:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Classify maps a final risk score to the three-way classification.
func Classify(score float64, t ScoringThresholds) Classification {
	switch {
	case score >= t.Malicious:
		return ClassMalicious
	case score >= t.Suspicious:
		return ClassSuspicious
	default:
		return ClassClean
	}
}
