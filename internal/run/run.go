// Package run wires the orchestration pipeline end to end: classify ->
// retrieve -> execute -> synthesize -> reflect -> (re-execute ->
// re-synthesize -> re-reflect) -> persist, a fixed five-stage pipeline
// over a concrete worker set.
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arthurspriet/hawk-ai-go/internal/cache"
	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/emit"
	"github.com/arthurspriet/hawk-ai-go/internal/evidence"
	"github.com/arthurspriet/hawk-ai-go/internal/executor"
	"github.com/arthurspriet/hawk-ai-go/internal/fusion"
	"github.com/arthurspriet/hawk-ai-go/internal/memory"
	"github.com/arthurspriet/hawk-ai-go/internal/orchestrator"
	"github.com/arthurspriet/hawk-ai-go/internal/reflection"
	"github.com/arthurspriet/hawk-ai-go/internal/router"
	"github.com/arthurspriet/hawk-ai-go/internal/synthesis"
	"github.com/arthurspriet/hawk-ai-go/internal/worker"
)

// Registry looks up a concrete Worker implementation by id. The core
// never constructs workers itself — cmd/hawkai wires Analyst/Search/
// Geo/Code/Redactor instances once at startup; the Reflector is held by
// the reflection.Loop instead.
type Registry interface {
	Get(id domain.WorkerID) (worker.Worker, bool)
}

// MapRegistry is the simplest Registry: a fixed map built at startup.
type MapRegistry map[domain.WorkerID]worker.Worker

func (m MapRegistry) Get(id domain.WorkerID) (worker.Worker, bool) {
	w, ok := m[id]
	return w, ok
}

// Core holds every collaborator one Run needs.
type Core struct {
	Orchestrator *orchestrator.Orchestrator
	Evidence     *evidence.Store
	Executor     *executor.Executor
	Synthesizer  *synthesis.Synthesizer
	Reflection   *reflection.Loop
	Workers      Registry
	Memory       memory.Store
	Cache        *cache.Cache
	Emitter      emit.Emitter
}

// Outcome is what Execute returns to the caller (transport or CLI).
type Outcome struct {
	Record         domain.RunRecord
	SynthesisText  string
	WorkersUsed    []domain.WorkerID
}

// Execute runs one Query through the full pipeline, emitting RunEvents
// throughout to core.Emitter, and returns the final Outcome. It always
// persists a RunRecord to core.Memory before returning, including on a
// cancelled or partially-failed run — cancellation is success from the
// transport's perspective. A synthesis failure that is not a cancellation
// emits EventError and returns without persisting.
func (c *Core) Execute(ctx context.Context, query domain.Query) (Outcome, error) {
	runID := uuid.NewString()
	startedAt := time.Now()

	sink := func(e domain.RunEvent) {
		e.RunID = runID
		c.Emitter.Emit(e)
	}

	sink(domain.RunEvent{Kind: domain.EventPhase, PhaseName: "classify"})
	routing := router.Select(query.Text)
	selection := c.Orchestrator.Select(query.Text)

	sink(domain.RunEvent{Kind: domain.EventPhase, PhaseName: "retrieve"})
	fused := c.retrieve(ctx, query.Text, selection)

	workers := c.resolveWorkers(routing.SelectedWorkers)

	sink(domain.RunEvent{Kind: domain.EventPhase, PhaseName: "execute"})
	results := c.Executor.Execute(ctx, runID, workers, query.Text, &fused, sink)

	sink(domain.RunEvent{Kind: domain.EventPhase, PhaseName: "synthesis"})
	synthesisText, reflect, iterationCount, err := c.synthesizeAndReflect(ctx, runID, query.Text, &fused, results, routing.SelectedWorkers, sink)
	if err != nil {
		if ctx.Err() != nil {
			// Client disconnect or deadline expiry mid-generation: this is
			// success from the caller's perspective, not a failure. Persist
			// whatever completed before cancellation and finish cleanly.
			return c.persistCancelled(runID, query, routing, selection, results, startedAt, sink)
		}
		sink(domain.RunEvent{Kind: domain.EventError, ErrorKind: "generation_unavailable", ErrorMessage: err.Error()})
		return Outcome{}, err
	}

	if routing.UseRedactor {
		synthesisText = c.applyRedactor(ctx, synthesisText, sink)
	}

	sink(domain.RunEvent{Kind: domain.EventReflection, Reflection: &reflect})

	record := domain.RunRecord{
		RunID:           runID,
		Query:           query,
		TaskKind:        routing.TaskKind,
		SelectedWorkers: routing.SelectedWorkers,
		Framework:       selection.Framework,
		WorkerResults:   results,
		SynthesisText:   synthesisText,
		Reflection:      reflect,
		IterationCount:  iterationCount,
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
	}

	if err := c.Memory.Append(ctx, record); err != nil {
		sink(domain.RunEvent{Kind: domain.EventError, ErrorKind: "internal", ErrorMessage: err.Error()})
	} else {
		sink(domain.RunEvent{Kind: domain.EventDone})
	}

	return Outcome{Record: record, SynthesisText: synthesisText, WorkersUsed: routing.SelectedWorkers}, nil
}

// persistCancelled builds and stores a partial RunRecord from whatever
// work completed before ctx was cancelled or its deadline expired.
// Persistence uses a background context since ctx is already done — the
// run still ends with EventDone, not EventError, because cancellation is
// not a failure; only a failed Append ends it with EventError instead.
func (c *Core) persistCancelled(runID string, query domain.Query, routing router.Selection, selection orchestrator.Selection, results []domain.WorkerResult, startedAt time.Time, sink executor.EventSink) (Outcome, error) {
	record := domain.RunRecord{
		RunID:           runID,
		Query:           query,
		TaskKind:        routing.TaskKind,
		SelectedWorkers: routing.SelectedWorkers,
		Framework:       selection.Framework,
		WorkerResults:   results,
		StartedAt:       startedAt,
		FinishedAt:      time.Now(),
	}

	if err := c.Memory.Append(context.Background(), record); err != nil {
		sink(domain.RunEvent{Kind: domain.EventError, ErrorKind: "internal", ErrorMessage: err.Error()})
	} else {
		sink(domain.RunEvent{Kind: domain.EventDone})
	}

	return Outcome{Record: record, WorkersUsed: routing.SelectedWorkers}, nil
}

// retrieve is cache-fronted: the Cache is consulted per corpus before the
// Evidence Store is probed, and every freshly-retrieved corpus result is
// cached back with no expiry; the configured "retrieve" expiry is not
// consulted here.
func (c *Core) retrieve(ctx context.Context, queryText string, selection orchestrator.Selection) domain.FusedEvidence {
	retrievals := make(map[domain.CorpusID][]domain.EvidenceRecord, len(selection.Corpora))
	var uncached []domain.CorpusID

	if c.Cache != nil {
		for _, corpusID := range selection.Corpora {
			key := cache.Key(cache.KindRetrieve, string(corpusID)+"|"+queryText)
			raw, hit := c.Cache.Get(key)
			if !hit {
				uncached = append(uncached, corpusID)
				continue
			}
			var recs []domain.EvidenceRecord
			if err := json.Unmarshal(raw, &recs); err != nil {
				uncached = append(uncached, corpusID)
				continue
			}
			retrievals[corpusID] = recs
		}
	} else {
		uncached = selection.Corpora
	}

	if len(uncached) > 0 {
		fresh := c.Evidence.RetrieveMany(ctx, queryText, uncached, 5)
		for corpusID, recs := range fresh {
			retrievals[corpusID] = recs
			if c.Cache == nil {
				continue
			}
			if raw, err := json.Marshal(recs); err == nil {
				key := cache.Key(cache.KindRetrieve, string(corpusID)+"|"+queryText)
				c.Cache.Put(key, raw, 0)
			}
		}
	}

	return fusion.Fuse(retrievals, c.Evidence.Weights(), selection.Framework)
}

func (c *Core) resolveWorkers(ids []domain.WorkerID) []worker.Worker {
	workers := make([]worker.Worker, 0, len(ids))
	for _, id := range ids {
		if w, ok := c.Workers.Get(id); ok {
			workers = append(workers, w)
		}
	}
	return workers
}

// synthesizeAndReflect runs the synthesize -> reflect -> (re-execute ->
// re-synthesize -> re-reflect) loop, keeping the iteration with the
// highest confidence, per the reflection loop's rerun contract.
func (c *Core) synthesizeAndReflect(ctx context.Context, runID, queryText string, evidence *domain.FusedEvidence, results []domain.WorkerResult, selectedWorkers []domain.WorkerID, sink executor.EventSink) (string, domain.Reflection, int, error) {
	deltaSink := func(text string) {
		sink(domain.RunEvent{Kind: domain.EventSynthesisDelta, Text: text})
	}
	progress := func(text string) {
		sink(domain.RunEvent{Kind: domain.EventWorkerProgress, WorkerID: domain.WorkerReflector, Text: text})
	}

	bestText, err := c.Synthesizer.Synthesize(ctx, queryText, evidence, results, evidence.Framework, deltaSink)
	if err != nil {
		return "", domain.Reflection{}, 0, fmt.Errorf("run: synthesis: %w", err)
	}
	bestReflection := c.Reflection.Reflect(ctx, queryText, results, bestText, evidence, selectedWorkers, progress)
	bestResults := results

	iteration := 1
	previousRerun := selectedWorkers
	lastRerun := bestReflection.Rerun
	for !c.Reflection.ShouldStop(bestReflection, iteration) && reflection.ShrinkOK(lastRerun, previousRerun) {
		rerunWorkers := c.resolveWorkers(lastRerun)
		rerunResults := c.Executor.Execute(ctx, runID, rerunWorkers, queryText, evidence, sink)

		merged := mergeResults(bestResults, rerunResults)
		text, err := c.Synthesizer.Synthesize(ctx, queryText, evidence, merged, evidence.Framework, deltaSink)
		if err != nil {
			break
		}
		refl := c.Reflection.Reflect(ctx, queryText, merged, text, evidence, selectedWorkers, progress)

		iteration++
		previousRerun = lastRerun
		lastRerun = refl.Rerun
		if refl.Confidence > bestReflection.Confidence {
			bestText, bestReflection, bestResults = text, refl, merged
		}
	}

	return bestText, bestReflection, iteration, nil
}

func mergeResults(base, rerun []domain.WorkerResult) []domain.WorkerResult {
	byID := make(map[domain.WorkerID]domain.WorkerResult, len(base))
	for _, r := range base {
		byID[r.WorkerID] = r
	}
	for _, r := range rerun {
		byID[r.WorkerID] = r
	}
	merged := make([]domain.WorkerResult, 0, len(byID))
	for _, r := range base {
		merged = append(merged, byID[r.WorkerID])
	}
	return merged
}

func (c *Core) applyRedactor(ctx context.Context, synthesisText string, sink executor.EventSink) string {
	redactor, ok := c.Workers.Get(domain.WorkerRedactor)
	if !ok {
		return synthesisText
	}
	progress := func(text string) {
		sink(domain.RunEvent{Kind: domain.EventWorkerProgress, WorkerID: domain.WorkerRedactor, Text: text})
	}
	result := redactor.Run(ctx, synthesisText, nil, progress)
	if result.Status != domain.StatusOK {
		return synthesisText
	}
	return result.OutputText
}
