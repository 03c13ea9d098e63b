// Package alertlog appends structured prediction events to a JSON-lines
// file and keeps a bounded in-memory buffer for dashboards.
package alertlog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"smartguard/pkg/types"
)

// defaultBufferSize bounds the in-memory alert buffer.
const defaultBufferSize = 50

const logFileName = "smartguard_json.log"

// Entry is one logged prediction event.
type Entry struct {
	Timestamp      string         `json:"timestamp"`
	SourceIP       string         `json:"source_ip"`
	Prediction     string         `json:"prediction"`
	ThreatScore    float64        `json:"threat_score"`
	Severity       types.Severity `json:"severity"`
	ResponseTimeMS float64        `json:"response_time_ms"`
}

// Logger writes prediction events as one JSON object per line. Safe for
// concurrent use.
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	buffer  []Entry
	bufSize int
}

// NewLogger opens (or creates) the alert log under dir.
func NewLogger(dir string) (*Logger, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("alertlog: creating directory: %w", err)
	}
	path := filepath.Join(dir, logFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("alertlog: opening %q: %w", path, err)
	}
	return &Logger{file: file, bufSize: defaultBufferSize}, nil
}

// LogPrediction records one event. prediction follows the classifier label
// convention: 1 is an attack, anything else is benign.
func (l *Logger) LogPrediction(ip string, prediction int, score float64, latency time.Duration) (Entry, error) {
	label := "BENIGN"
	if prediction == 1 {
		label = "ATTACK"
	}
	entry := Entry{
		Timestamp:      time.Now().Format(time.RFC3339),
		SourceIP:       ip,
		Prediction:     label,
		ThreatScore:    roundTo(score, 4),
		Severity:       severityForScore(score),
		ResponseTimeMS: roundTo(float64(latency.Microseconds())/1000, 2),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return entry, fmt.Errorf("alertlog: encoding entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return entry, fmt.Errorf("alertlog: writing entry: %w", err)
	}
	l.buffer = append(l.buffer, entry)
	if len(l.buffer) > l.bufSize {
		l.buffer = l.buffer[len(l.buffer)-l.bufSize:]
	}
	return entry, nil
}

// Recent returns up to count buffered entries, oldest first.
func (l *Logger) Recent(count int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if count <= 0 || count > len(l.buffer) {
		count = len(l.buffer)
	}
	out := make([]Entry, count)
	copy(out, l.buffer[len(l.buffer)-count:])
	return out
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func severityForScore(score float64) types.Severity {
	switch {
	case score < 0.5:
		return types.SeverityLow
	case score < 0.7:
		return types.SeverityMedium
	case score < 0.9:
		return types.SeverityHigh
	default:
		return types.SeverityCritical
	}
}

func roundTo(v float64, digits int) float64 {
	m := math.Pow(10, float64(digits))
	return math.Round(v*m) / m
}
