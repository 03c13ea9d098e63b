package history

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"smartguard/pkg/types"
)

var recordPrefix = []byte("scan:")

// PebbleStore persists scan records in an LSM tree. Keys embed an inverted
// timestamp so an ascending iteration yields records newest-first.
type PebbleStore struct {
	mu         sync.Mutex
	db         *pebble.DB
	maxRecords int
}

func NewPebbleStore(path string, maxRecords int) (*PebbleStore, error) {
	if path == "" {
		path = "data/scan_history.pebble"
	}
	db, err := pebble.Open(path, &pebble.Options{
		Cache: pebble.NewCache(32 << 20),
	})
	if err != nil {
		return nil, fmt.Errorf("history: opening pebble db %q: %w", path, err)
	}
	return &PebbleStore{db: db, maxRecords: maxRecords}, nil
}

// recordKey orders records newest-first under an ascending scan. The ID
// suffix disambiguates records created within the same nanosecond.
func recordKey(ts time.Time, id string) []byte {
	inverted := uint64(math.MaxInt64 - ts.UnixNano())
	return []byte(fmt.Sprintf("%s%020d:%s", recordPrefix, inverted, id))
}

func (s *PebbleStore) AddRecord(rec *types.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("history: encoding record %q: %w", rec.ID, err)
	}
	key := recordKey(time.Now(), rec.ID)
	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return fmt.Errorf("history: storing record %q: %w", rec.ID, err)
	}
	return s.evictLocked()
}

// evictLocked deletes every record past the retention cap. Records are
// already ordered newest-first, so eviction is a single forward pass.
func (s *PebbleStore) evictLocked() error {
	iter, err := s.newRecordIter()
	if err != nil {
		return err
	}

	var stale [][]byte
	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
		if count > s.maxRecords {
			key := append([]byte(nil), iter.Key()...)
			stale = append(stale, key)
		}
	}
	iter.Close()

	if len(stale) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	for _, key := range stale {
		if err := batch.Delete(key, nil); err != nil {
			return fmt.Errorf("history: evicting record: %w", err)
		}
	}
	return batch.Commit(pebble.Sync)
}

func (s *PebbleStore) History(limit int) ([]*types.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter, err := s.newRecordIter()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var records []*types.ScanRecord
	for iter.First(); iter.Valid(); iter.Next() {
		if limit > 0 && len(records) >= limit {
			break
		}
		var rec types.ScanRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("history: corrupt record at key %q: %w", iter.Key(), err)
		}
		records = append(records, &rec)
	}
	return records, nil
}

func (s *PebbleStore) Analytics() (*types.Analytics, error) {
	records, err := s.History(analyticsWindow)
	if err != nil {
		return nil, err
	}
	return computeAnalytics(records), nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func (s *PebbleStore) newRecordIter() (*pebble.Iterator, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: recordPrefix,
		UpperBound: upperBound(recordPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("history: creating iterator: %w", err)
	}
	return iter, nil
}

func upperBound(prefix []byte) []byte {
	bound := append([]byte(nil), prefix...)
	for i := len(bound) - 1; i >= 0; i-- {
		if bound[i] < 0xff {
			bound[i]++
			return bound[:i+1]
		}
	}
	return nil
}
