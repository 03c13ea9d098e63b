// Package history persists scan records and serves recent-scan analytics.
// Records are kept newest-first and bounded; the oldest are evicted.
package history

import (
	"fmt"
	"math"
	"strings"

	"smartguard/pkg/types"
)

// analyticsWindow is how many recent records feed the analytics summary.
const analyticsWindow = 100

// Store is the persistence contract for scan records.
type Store interface {
	// AddRecord persists a record at the head of the history.
	AddRecord(rec *types.ScanRecord) error
	// History returns records newest-first; limit <= 0 returns all.
	History(limit int) ([]*types.ScanRecord, error)
	// Analytics summarizes the most recent records.
	Analytics() (*types.Analytics, error)
	Close() error
}

// NewStore builds the configured backend. The JSON file store is the
// default; Pebble serves installations with large scan volumes.
func NewStore(cfg types.History) (Store, error) {
	maxRecords := cfg.MaxRecords
	if maxRecords <= 0 {
		maxRecords = 100
	}
	switch strings.ToLower(cfg.Backend) {
	case "", "json":
		return NewJSONStore(cfg.Path, maxRecords)
	case "pebble":
		return NewPebbleStore(cfg.Path, maxRecords)
	default:
		return nil, fmt.Errorf("history: unknown backend %q", cfg.Backend)
	}
}

func computeAnalytics(records []*types.ScanRecord) *types.Analytics {
	if len(records) > analyticsWindow {
		records = records[:analyticsWindow]
	}
	analytics := &types.Analytics{SeverityDist: make(map[string]int)}
	analytics.TotalScans = len(records)
	if len(records) == 0 {
		return analytics
	}

	threats := 0
	for _, rec := range records {
		if rec.Detection != types.ClassClean {
			threats++
		}
		analytics.SeverityDist[string(rec.Severity)]++
	}
	ratio := float64(threats) / float64(len(records)) * 100
	analytics.ThreatRatio = math.Round(ratio*10) / 10
	return analytics
}
