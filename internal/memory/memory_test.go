package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collaboration.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord(runID string, confidence float64, workers ...domain.WorkerID) domain.RunRecord {
	results := make([]domain.WorkerResult, 0, len(workers))
	for _, w := range workers {
		results = append(results, domain.WorkerResult{WorkerID: w, Status: domain.StatusOK})
	}
	return domain.RunRecord{
		RunID:         runID,
		Query:         domain.Query{Text: "situation in sudan"},
		TaskKind:      domain.TaskGeospatial,
		WorkerResults: results,
		Reflection:    domain.Reflection{Confidence: confidence},
		StartedAt:     time.Now(),
	}
}

func TestAppendAndRecentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, sampleRecord("run-1", 0.8, domain.WorkerAnalyst)))
	require.NoError(t, store.Append(ctx, sampleRecord("run-2", 0.6, domain.WorkerGeo)))

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "run-2", recent[0].RunID, "newest first")
	assert.Equal(t, "run-1", recent[1].RunID)
}

func TestAppendRejectsDuplicateRunID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, sampleRecord("dup", 0.5)))
	err := store.Append(ctx, sampleRecord("dup", 0.9))
	assert.Error(t, err)
}

func TestSearchFiltersByConfidenceQueryAndWorker(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, sampleRecord("low", 0.3, domain.WorkerSearch)))
	require.NoError(t, store.Append(ctx, sampleRecord("high", 0.9, domain.WorkerGeo)))

	results, err := store.Search(ctx, Filter{MinConfidence: 0.5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "high", results[0].RunID)

	results, err = store.Search(ctx, Filter{MinConfidence: 0, Worker: domain.WorkerSearch})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "low", results[0].RunID)
}

func TestStatsAggregatesPerWorkerAndConfidenceBuckets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, sampleRecord("a", 0.72, domain.WorkerAnalyst)))
	require.NoError(t, store.Append(ctx, sampleRecord("b", 0.78, domain.WorkerAnalyst, domain.WorkerGeo)))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 2, stats.PerWorkerCounts[domain.WorkerAnalyst])
	assert.Equal(t, 1, stats.PerWorkerCounts[domain.WorkerGeo])
	assert.Equal(t, 2, stats.ConfidenceHistogram["70-80%"])
}

func TestConfidenceBucketBoundaries(t *testing.T) {
	assert.Equal(t, "0-10%", confidenceBucket(0.0))
	assert.Equal(t, "70-80%", confidenceBucket(0.75))
	assert.Equal(t, "90-100%", confidenceBucket(0.99))
}
