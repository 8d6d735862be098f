package emit

import (
	"context"
	"sync"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// BufferedEmitter stores events in memory keyed by run ID; History
// returns one run's events. The server installs it as the Core's emitter
// and adds it to every streaming request's Fanout. The /history endpoint
// and the non-streaming /chat response do not read from it: /history
// reads Collaboration Memory and /chat answers from the Run's Outcome.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]domain.RunEvent
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]domain.RunEvent)}
}

func (b *BufferedEmitter) Emit(event domain.RunEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.RunID] = append(b.events[event.RunID], event)
}

func (b *BufferedEmitter) EmitBatch(_ context.Context, events []domain.RunEvent) error {
	for _, e := range events {
		b.Emit(e)
	}
	return nil
}

func (b *BufferedEmitter) Flush(context.Context) error { return nil }

// History returns a copy of the events recorded for runID, in emission
// order. Returns an empty (non-nil) slice if the run is unknown.
func (b *BufferedEmitter) History(runID string) []domain.RunEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	events := b.events[runID]
	if len(events) == 0 {
		return []domain.RunEvent{}
	}
	out := make([]domain.RunEvent, len(events))
	copy(out, events)
	return out
}

// Clear drops buffered events for runID, or every run if runID is empty.
// The janitor's periodic maintenance sweep calls this to bound memory
// growth for long-lived servers.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if runID == "" {
		b.events = make(map[string][]domain.RunEvent)
		return
	}
	delete(b.events, runID)
}
