// Package emit provides pluggable observability backends for a Run: the
// same RunEvent stream feeds the streaming transport, a history buffer
// for the /history endpoint, structured logs, and traces.
package emit

import (
	"context"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// Emitter receives RunEvents produced over the lifetime of a Run.
//
// Implementations must be non-blocking and thread-safe: Emit is called
// concurrently from the Executor's per-worker goroutines as well as from
// the Synthesis and Reflection stages.
type Emitter interface {
	// Emit sends one event. Must not block the caller meaningfully and
	// must not panic; implementations handle their own backend failures.
	Emit(event domain.RunEvent)

	// EmitBatch sends multiple events as one unit, preserving order.
	EmitBatch(ctx context.Context, events []domain.RunEvent) error

	// Flush blocks until any buffered events have been delivered.
	Flush(ctx context.Context) error
}

// EmitterFunc adapts a plain function to the Emitter interface for the
// Emit method only; EmitBatch replays events through Emit one at a time
// and Flush is a no-op, which is all a one-shot streaming sink needs.
type EmitterFunc func(domain.RunEvent)

func (f EmitterFunc) Emit(event domain.RunEvent) { f(event) }

func (f EmitterFunc) EmitBatch(_ context.Context, events []domain.RunEvent) error {
	for _, e := range events {
		f(e)
	}
	return nil
}

func (f EmitterFunc) Flush(context.Context) error { return nil }

// Fanout emits to every configured backend in order, so a Run can, for
// instance, stream to Transport while also recording to Buffered history
// and exporting spans to OTel.
type Fanout struct {
	emitters []Emitter
}

// NewFanout builds a Fanout over the given emitters.
func NewFanout(emitters ...Emitter) *Fanout {
	return &Fanout{emitters: emitters}
}

func (f *Fanout) Emit(event domain.RunEvent) {
	for _, e := range f.emitters {
		e.Emit(event)
	}
}

func (f *Fanout) EmitBatch(ctx context.Context, events []domain.RunEvent) error {
	for _, e := range f.emitters {
		if err := e.EmitBatch(ctx, events); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fanout) Flush(ctx context.Context) error {
	for _, e := range f.emitters {
		if err := e.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}
