package emit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

func TestEmitterFuncAdaptsPlainFunction(t *testing.T) {
	var received []domain.RunEvent
	sink := EmitterFunc(func(e domain.RunEvent) {
		received = append(received, e)
	})

	sink.Emit(domain.RunEvent{Kind: domain.EventPhase, PhaseName: "retrieve"})
	require.Len(t, received, 1)
	assert.Equal(t, domain.EventPhase, received[0].Kind)

	err := sink.EmitBatch(context.Background(), []domain.RunEvent{
		{Kind: domain.EventDone},
		{Kind: domain.EventError, ErrorKind: "timeout"},
	})
	require.NoError(t, err)
	assert.Len(t, received, 3)
	assert.NoError(t, sink.Flush(context.Background()))
}

func TestFanoutBroadcastsToEveryEmitter(t *testing.T) {
	buffered := NewBufferedEmitter()
	var fnCalls int
	fn := EmitterFunc(func(domain.RunEvent) { fnCalls++ })

	fanout := NewFanout(buffered, fn)
	fanout.Emit(domain.RunEvent{RunID: "run-1", Kind: domain.EventWorkerStarted, WorkerID: domain.WorkerAnalyst})

	assert.Equal(t, 1, fnCalls)
	assert.Len(t, buffered.History("run-1"), 1)
}

func TestFanoutEmitBatchStopsOnFirstError(t *testing.T) {
	ok := EmitterFunc(func(domain.RunEvent) {})
	failing := &failingEmitter{}
	fanout := NewFanout(ok, failing)

	err := fanout.EmitBatch(context.Background(), []domain.RunEvent{{Kind: domain.EventDone}})
	assert.Error(t, err)
}

func TestBufferedEmitterHistoryAndClear(t *testing.T) {
	b := NewBufferedEmitter()
	b.Emit(domain.RunEvent{RunID: "a", Kind: domain.EventWorkerStarted})
	b.Emit(domain.RunEvent{RunID: "a", Kind: domain.EventDone})
	b.Emit(domain.RunEvent{RunID: "b", Kind: domain.EventDone})

	assert.Len(t, b.History("a"), 2)
	assert.Len(t, b.History("b"), 1)
	assert.Empty(t, b.History("unknown"))

	b.Clear("a")
	assert.Empty(t, b.History("a"))
	assert.Len(t, b.History("b"), 1)

	b.Clear("")
	assert.Empty(t, b.History("b"))
}

type failingEmitter struct{}

func (f *failingEmitter) Emit(domain.RunEvent) {}
func (f *failingEmitter) EmitBatch(context.Context, []domain.RunEvent) error {
	return assert.AnError
}
func (f *failingEmitter) Flush(context.Context) error { return nil }
