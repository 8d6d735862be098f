// Package executor implements the Parallel Executor: bounded-parallel
// worker fan-out with live progress events and canonical-order result
// collection. The bounded-concurrency discipline is the same shape as the
// teacher's graph.Frontier (graph/scheduler.go) — a fixed-capacity gate
// that blocks admission past capacity — simplified here to a semaphore
// since the work items are a known, small, one-shot worker set rather
// than an open-ended node graph needing heap-ordered replay.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/worker"
)

// EventSink receives RunEvents produced during execution.
type EventSink func(domain.RunEvent)

// Config bounds one Execute call.
type Config struct {
	MaxParallel     int
	OverallDeadline time.Duration
	GraceWindow     time.Duration
	WorkerDeadline  func(domain.WorkerID) time.Duration
}

// Executor runs a canonically-ordered worker set concurrently.
type Executor struct {
	cfg Config
}

// New builds an Executor. Zero-valued Config fields fall back to
// defaults (MaxParallel = min(|workers|,3) is applied per-call since it
// depends on the set size; OverallDeadline 120s; GraceWindow 2s).
func New(cfg Config) *Executor {
	if cfg.OverallDeadline <= 0 {
		cfg.OverallDeadline = 120 * time.Second
	}
	if cfg.GraceWindow <= 0 {
		cfg.GraceWindow = 2 * time.Second
	}
	return &Executor{cfg: cfg}
}

// Execute runs workers (in canonical order) against evidence, emitting
// progress on sink, and returns their WorkerResults in the same canonical
// order regardless of completion order.
func (e *Executor) Execute(ctx context.Context, runID string, workers []worker.Worker, queryText string, evidence *domain.FusedEvidence, sink EventSink) []domain.WorkerResult {
	maxParallel := e.cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = len(workers)
		if maxParallel > 3 {
			maxParallel = 3
		}
		if maxParallel < 1 {
			maxParallel = 1
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.OverallDeadline)
	defer cancel()

	results := make([]domain.WorkerResult, len(workers))
	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup

	for i, w := range workers {
		// Acquire a slot before emitting worker_started so start events
		// stay in canonical order even though execution itself proceeds in
		// bounded waves.
		select {
		case sem <- struct{}{}:
		case <-runCtx.Done():
			results[i] = domain.WorkerResult{WorkerID: w.ID(), Status: domain.StatusError, ErrorKind: "cancelled"}
			continue
		}

		sink(domain.RunEvent{Kind: domain.EventWorkerStarted, RunID: runID, WorkerID: w.ID()})

		var ev *domain.FusedEvidence
		if w.RequiresEvidence() {
			ev = evidence
		}

		wg.Add(1)
		go func(idx int, w worker.Worker, ev *domain.FusedEvidence) {
			defer wg.Done()
			defer func() { <-sem }()

			deadline := time.Duration(0)
			if e.cfg.WorkerDeadline != nil {
				deadline = e.cfg.WorkerDeadline(w.ID())
			}

			progress := func(text string) {
				sink(domain.RunEvent{Kind: domain.EventWorkerProgress, RunID: runID, WorkerID: w.ID(), Text: text})
			}

			result := runWithGrace(runCtx, w, queryText, ev, progress, deadline, e.cfg.GraceWindow)
			results[idx] = result

			summary := result.OutputText
			if result.Status == domain.StatusError {
				summary = fmt.Sprintf("error (%s)", result.ErrorKind)
			} else if len(summary) > 140 {
				summary = summary[:140] + "..."
			}
			sink(domain.RunEvent{
				Kind:       domain.EventWorkerCompleted,
				RunID:      runID,
				WorkerID:   w.ID(),
				Summary:    summary,
				Status:     result.Status,
				DurationMS: result.DurationMS,
				ErrorKind:  result.ErrorKind,
			})
		}(i, w, ev)
	}

	wg.Wait()
	return results
}

// runWithGrace runs w.Run under a per-worker deadline via
// worker.RunWithDeadline, additionally bounding how long it will wait past
// the overall context's cancellation before declaring the worker timed
// out.
func runWithGrace(ctx context.Context, w worker.Worker, queryText string, evidence *domain.FusedEvidence, progress worker.ProgressFunc, deadline, grace time.Duration) domain.WorkerResult {
	done := make(chan domain.WorkerResult, 1)
	go func() {
		done <- worker.RunWithDeadline(ctx, w, queryText, evidence, progress, deadline)
	}()

	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		select {
		case r := <-done:
			return r
		case <-time.After(grace):
			return domain.WorkerResult{WorkerID: w.ID(), Status: domain.StatusError, ErrorKind: "timeout"}
		}
	}
}
