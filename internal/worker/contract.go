// Package worker implements the Worker Contract and its concrete
// specialist workers. Every worker shares one invocation surface so HTTP
// calls, shell commands, and generation calls all fit behind a single
// ID()/Run() shape.
package worker

import (
	"context"
	"time"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// ProgressFunc surfaces human-readable progress from a worker. It must be
// non-blocking from the worker's perspective; callers are expected to
// buffer or drop rather than stall the worker goroutine.
type ProgressFunc func(text string)

// Worker is the uniform surface every specialist implements.
type Worker interface {
	// ID returns the worker's stable symbolic identifier.
	ID() domain.WorkerID

	// RequiresEvidence reports whether the Executor should pass fused
	// evidence (true) or nil (false) into Run.
	RequiresEvidence() bool

	// Run executes one invocation. Implementations must respect ctx
	// cancellation at their suspension points and must never mutate
	// queryText or evidence.
	Run(ctx context.Context, queryText string, evidence *domain.FusedEvidence, progress ProgressFunc) domain.WorkerResult
}

// RunWithDeadline wraps w.Run with a per-worker deadline (default 60s) and
// maps context cancellation into the right WorkerResult status/kind, so
// individual workers don't each have to special-case ctx.Err() themselves.
func RunWithDeadline(ctx context.Context, w Worker, queryText string, evidence *domain.FusedEvidence, progress ProgressFunc, deadline time.Duration) domain.WorkerResult {
	if deadline <= 0 {
		deadline = 60 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	start := time.Now()
	result := w.Run(runCtx, queryText, evidence, progress)
	result.WorkerID = w.ID()
	if result.DurationMS == 0 {
		result.DurationMS = time.Since(start).Milliseconds()
	}

	if result.Status == domain.StatusError {
		return result
	}

	switch runCtx.Err() {
	case context.DeadlineExceeded:
		return domain.WorkerResult{
			WorkerID:   w.ID(),
			Status:     domain.StatusError,
			ErrorKind:  "timeout",
			DurationMS: result.DurationMS,
		}
	case context.Canceled:
		return domain.WorkerResult{
			WorkerID:   w.ID(),
			Status:     domain.StatusError,
			ErrorKind:  "cancelled",
			DurationMS: result.DurationMS,
		}
	default:
		return result
	}
}
