package correlation

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartguard/internal/history"
	"smartguard/pkg/types"
)

func newTestStore(t *testing.T) history.Store {
	t.Helper()
	store, err := history.NewJSONStore(filepath.Join(t.TempDir(), "history.json"), 100)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func historicRecord(id, sha string, risk, entropy float64, detection types.Classification) *types.ScanRecord {
	return &types.ScanRecord{
		ID:          id,
		IsMalicious: detection != types.ClassClean,
		ScanVerdict: types.ScanVerdict{
			Filename:  id + ".bin",
			SHA256:    sha,
			Detection: detection,
			RiskScore: risk,
			Timestamp: "2026-08-26 10:00:00",
			Layers: map[string]*types.LayerResult{
				"ml": {Layer: "Machine Learning (Baseline)", Entropy: entropy},
			},
		},
	}
}

func TestFindCorrelationsRecurrentHash(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddRecord(historicRecord("old", "sha-abc", 80, 5.0, types.ClassMalicious)))

	c := NewCorrelator(store)
	current := historicRecord("new", "sha-abc", 20, 2.0, types.ClassClean)

	correlations := c.FindCorrelations(current)
	assert.Contains(t, correlations, "Recurrent Hash: Exact same payload detected previously.")
}

func TestFindCorrelationsIgnoresSelf(t *testing.T) {
	store := newTestStore(t)
	rec := historicRecord("same", "sha-abc", 80, 5.0, types.ClassMalicious)
	require.NoError(t, store.AddRecord(rec))

	c := NewCorrelator(store)
	correlations := c.FindCorrelations(rec)
	assert.NotContains(t, correlations, "Recurrent Hash: Exact same payload detected previously.")
}

func TestFindCorrelationsStructuralVariant(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddRecord(historicRecord("known-threat", "sha-one", 80, 5.00, types.ClassMalicious)))

	c := NewCorrelator(store)
	current := historicRecord("incoming", "sha-two", 82, 5.02, types.ClassMalicious)

	correlations := c.FindCorrelations(current)
	assert.Contains(t, correlations, "Heuristic Variant: Structural similarity to known threat known-threat")
}

func TestFindCorrelationsVariantRequiresMaliciousHistory(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddRecord(historicRecord("benign", "sha-one", 82, 5.00, types.ClassClean)))

	c := NewCorrelator(store)
	current := historicRecord("incoming", "sha-two", 82, 5.00, types.ClassMalicious)
	assert.Empty(t, c.FindCorrelations(current))
}

func TestFindCorrelationsVariantDistanceBounds(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddRecord(historicRecord("far-entropy", "sha-one", 80, 6.0, types.ClassMalicious)))
	require.NoError(t, store.AddRecord(historicRecord("far-risk", "sha-two", 95, 5.0, types.ClassMalicious)))

	c := NewCorrelator(store)
	current := historicRecord("incoming", "sha-three", 80, 5.0, types.ClassMalicious)

	correlations := c.FindCorrelations(current)
	for _, corr := range correlations {
		assert.NotContains(t, corr, "far-entropy")
		assert.NotContains(t, corr, "far-risk")
	}
}

func TestFindSimilarThreats(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.AddRecord(historicRecord("exact", "sha-match", 90, 5.0, types.ClassMalicious)))
	require.NoError(t, store.AddRecord(historicRecord("close", "sha-other", 72, 5.0, types.ClassMalicious)))
	require.NoError(t, store.AddRecord(historicRecord("far", "sha-far", 20, 5.0, types.ClassClean)))

	c := NewCorrelator(store)
	similar := c.FindSimilarThreats("sha-match", 70)

	require.Len(t, similar, 2)
	byID := make(map[string]SimilarThreat)
	for _, s := range similar {
		byID[s.ID] = s
	}
	assert.Equal(t, "Exact Match", byID["exact"].Type)
	assert.Equal(t, "Risk Variant", byID["close"].Type)
}

func TestFindSimilarThreatsCappedAtFive(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 8; i++ {
		rec := historicRecord(fmt.Sprintf("r%d", i), fmt.Sprintf("sha-%d", i), 70, 5.0, types.ClassMalicious)
		require.NoError(t, store.AddRecord(rec))
	}

	c := NewCorrelator(store)
	similar := c.FindSimilarThreats("no-such-hash", 70)
	assert.Len(t, similar, 5)
}
