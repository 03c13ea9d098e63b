package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"smartguard/pkg/types"
)

// JSONStore keeps the full history as a newest-first JSON array in a
// single file. Suits the bounded record counts this store is used with.
type JSONStore struct {
	mu         sync.Mutex
	path       string
	maxRecords int
}

func NewJSONStore(path string, maxRecords int) (*JSONStore, error) {
	if path == "" {
		path = filepath.Join("data", "scan_history.json")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: creating directory: %w", err)
		}
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, fmt.Errorf("history: initializing file: %w", err)
		}
	}
	return &JSONStore{path: path, maxRecords: maxRecords}, nil
}

func (s *JSONStore) load() ([]*types.ScanRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: reading file: %w", err)
	}
	var records []*types.ScanRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("history: parsing file: %w", err)
	}
	return records, nil
}

func (s *JSONStore) save(records []*types.ScanRecord) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("history: encoding records: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("history: writing file: %w", err)
	}
	return nil
}

func (s *JSONStore) AddRecord(rec *types.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records = append([]*types.ScanRecord{rec}, records...)
	if len(records) > s.maxRecords {
		records = records[:s.maxRecords]
	}
	return s.save(records)
}

func (s *JSONStore) History(limit int) ([]*types.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *JSONStore) Analytics() (*types.Analytics, error) {
	records, err := s.History(analyticsWindow)
	if err != nil {
		return nil, err
	}
	return computeAnalytics(records), nil
}

func (s *JSONStore) Close() error {
	return nil
}
