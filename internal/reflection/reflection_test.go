package reflection

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/llm"
	"github.com/arthurspriet/hawk-ai-go/internal/worker"
)

func newLoop(model llm.Model) *Loop {
	return New(&worker.Reflector{Model: model, ModelID: "mock-reflect"}, 0, 0)
}

func noopProgress(string) {}

func TestNewAppliesDefaultsForZeroValues(t *testing.T) {
	loop := New(&worker.Reflector{}, 0, 0)
	assert.Equal(t, DefaultConfidenceFloor, loop.ConfidenceFloor)
	assert.Equal(t, DefaultMaxIter, loop.MaxIter)
}

func TestReflectParsesWellFormedJSON(t *testing.T) {
	model := &llm.MockModel{Responses: []llm.ChatOut{{Text: `{
		"confidence": 0.85,
		"contradictions": ["analyst vs geo on casualty count"],
		"rerun": ["analyst"],
		"consistency_check": {"overall_stability": 0.9, "contradictions": [], "alignment_summary": "consistent"},
		"review_notes": "looks solid"
	}`}}}
	loop := newLoop(model)

	r := loop.Reflect(context.Background(), "query", nil, "synthesis text", nil,
		[]domain.WorkerID{domain.WorkerAnalyst, domain.WorkerGeo}, noopProgress)

	require.Equal(t, 0.85, r.Confidence)
	assert.Equal(t, []string{"analyst vs geo on casualty count"}, r.Contradictions)
	assert.Equal(t, []domain.WorkerID{domain.WorkerAnalyst}, r.Rerun)
	assert.Equal(t, "looks solid", r.ReviewNotes)
}

func TestReflectDropsRerunIDsOutsideSelectedWorkers(t *testing.T) {
	model := &llm.MockModel{Responses: []llm.ChatOut{{Text: `{"confidence": 0.6, "rerun": ["analyst", "code"]}`}}}
	loop := newLoop(model)

	r := loop.Reflect(context.Background(), "q", nil, "s", nil, []domain.WorkerID{domain.WorkerAnalyst}, noopProgress)

	assert.Equal(t, []domain.WorkerID{domain.WorkerAnalyst}, r.Rerun)
}

func TestReflectCoercesNonNumericConfidenceToDefault(t *testing.T) {
	model := &llm.MockModel{Responses: []llm.ChatOut{{Text: `{"confidence": "high"}`}}}
	loop := newLoop(model)

	r := loop.Reflect(context.Background(), "q", nil, "s", nil, nil, noopProgress)

	assert.Equal(t, 0.5, r.Confidence)
}

func TestReflectDegradesOnUnparsableOutput(t *testing.T) {
	model := &llm.MockModel{Responses: []llm.ChatOut{{Text: "not json at all"}}}
	loop := newLoop(model)

	r := loop.Reflect(context.Background(), "q", nil, "s", nil, nil, noopProgress)

	assert.Equal(t, 0.0, r.Confidence)
	assert.Contains(t, r.ReviewNotes, "could not parse")
}

func TestReflectDegradesWhenModelErrors(t *testing.T) {
	model := &llm.MockModel{Err: assert.AnError}
	loop := newLoop(model)

	r := loop.Reflect(context.Background(), "q", nil, "s", nil, nil, noopProgress)

	assert.Equal(t, 0.0, r.Confidence)
	assert.Contains(t, r.ReviewNotes, "reflection worker unavailable")
}

func TestReflectExtractsJSONEmbeddedInProse(t *testing.T) {
	model := &llm.MockModel{Responses: []llm.ChatOut{{Text: "Here is my evaluation:\n```json\n{\"confidence\": 0.75}\n```\nthanks"}}}
	loop := newLoop(model)

	r := loop.Reflect(context.Background(), "q", nil, "s", nil, nil, noopProgress)

	assert.Equal(t, 0.75, r.Confidence)
}

func TestShouldStopOnConfidenceOrIterationCap(t *testing.T) {
	loop := New(&worker.Reflector{}, 0.7, 2)

	assert.True(t, loop.ShouldStop(domain.Reflection{Confidence: 0.9}, 1))
	assert.False(t, loop.ShouldStop(domain.Reflection{Confidence: 0.4}, 1))
	assert.True(t, loop.ShouldStop(domain.Reflection{Confidence: 0.4}, 2))
}

func TestReflectWritesSnapshotWhenPathSet(t *testing.T) {
	model := &llm.MockModel{Responses: []llm.ChatOut{{Text: `{"confidence": 0.85, "review_notes": "ok"}`}}}
	loop := newLoop(model)
	loop.SnapshotPath = filepath.Join(t.TempDir(), "last_reasoning.json")

	workers := []domain.WorkerID{domain.WorkerAnalyst, domain.WorkerGeo}
	r := loop.Reflect(context.Background(), "q", nil, "s", nil, workers, noopProgress)

	data, err := os.ReadFile(loop.SnapshotPath)
	require.NoError(t, err)

	var snap reasoningSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, r.Confidence, snap.Reflection.Confidence)
	assert.Equal(t, workers, snap.WorkerIDs)
}

func TestReflectSkipsSnapshotWhenPathEmpty(t *testing.T) {
	model := &llm.MockModel{Responses: []llm.ChatOut{{Text: `{"confidence": 0.5}`}}}
	loop := newLoop(model)
	require.Empty(t, loop.SnapshotPath)

	loop.Reflect(context.Background(), "q", nil, "s", nil, nil, noopProgress)
	// No path configured: nothing should have been written anywhere the
	// test can observe, and Reflect must not panic or error on the empty
	// path.
}

func TestShrinkOKRequiresNonEmptyStrictShrink(t *testing.T) {
	previous := []domain.WorkerID{domain.WorkerAnalyst, domain.WorkerGeo}

	assert.True(t, ShrinkOK([]domain.WorkerID{domain.WorkerAnalyst}, previous))
	assert.False(t, ShrinkOK(nil, previous))
	assert.False(t, ShrinkOK([]domain.WorkerID{domain.WorkerAnalyst, domain.WorkerGeo}, previous))
}
