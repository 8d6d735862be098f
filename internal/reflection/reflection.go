// Package reflection implements the Reflection & Adaptive Re-run Loop:
// one structured evaluation call per iteration, with coercion of
// malformed model output and the rerun-set bookkeeping the top-level Run
// needs to decide whether to loop.
package reflection

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/worker"
)

// DefaultConfidenceFloor is the default confidence threshold that stops
// the reflection loop.
const DefaultConfidenceFloor = 0.7

// DefaultMaxIter is the default cap on reflection iterations, with strict
// rerun-set shrinking enforced between iterations.
const DefaultMaxIter = 2

// wireReflection is the JSON shape the reflection worker is asked to
// produce (see worker.reflectionSystemPrompt). Confidence and
// overall_stability are decoded as `any` rather than a numeric type so a
// malformed (non-numeric) value coerces to a default instead of failing
// the whole decode.
type wireReflection struct {
	Confidence     any      `json:"confidence"`
	Contradictions []string `json:"contradictions"`
	Rerun          []string `json:"rerun"`
	Consistency    struct {
		OverallStability any      `json:"overall_stability"`
		Contradictions   []string `json:"contradictions"`
		AlignmentSummary string   `json:"alignment_summary"`
	} `json:"consistency_check"`
	ReviewNotes string `json:"review_notes"`
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Loop evaluates one reflection call and decides whether to continue.
type Loop struct {
	Reflector       *worker.Reflector
	ConfidenceFloor float64
	MaxIter         int

	// SnapshotPath, if set, is where Reflect dumps a convenience copy of
	// the latest Reflection after every call (e.g.
	// "data/analysis/last_reasoning.json"). Empty disables the dump.
	SnapshotPath string
}

// reasoningSnapshot is the on-disk shape of the SnapshotPath dump.
type reasoningSnapshot struct {
	Reflection domain.Reflection `json:"reflection"`
	WorkerIDs  []domain.WorkerID `json:"worker_ids"`
}

// New builds a Loop with spec defaults applied for zero-valued fields.
func New(reflector *worker.Reflector, confidenceFloor float64, maxIter int) *Loop {
	if confidenceFloor <= 0 {
		confidenceFloor = DefaultConfidenceFloor
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	return &Loop{Reflector: reflector, ConfidenceFloor: confidenceFloor, MaxIter: maxIter}
}

// Reflect runs one reflection call and parses its output into a
// domain.Reflection, coercing malformed fields: a non-numeric confidence
// defaults to 0.5, and worker ids outside selectedWorkers are dropped
// from rerun. Contradictions are free-text strings and are kept as the
// model returned them.
func (l *Loop) Reflect(ctx context.Context, queryText string, results []domain.WorkerResult, synthesisText string, evidence *domain.FusedEvidence, selectedWorkers []domain.WorkerID, progress worker.ProgressFunc) (result domain.Reflection) {
	defer func() { l.writeSnapshot(result, selectedWorkers) }()

	prompt := worker.BuildReflectionPrompt(queryText, results, synthesisText)

	wr := l.Reflector.Run(ctx, prompt, evidence, progress)
	if wr.Status != domain.StatusOK {
		result = degraded(fmt.Sprintf("reflection worker unavailable: %s", wr.ErrorKind))
		return result
	}

	parsed, err := parse(wr.OutputText)
	if err != nil {
		result = degraded(fmt.Sprintf("could not parse reflection output: %v", err))
		return result
	}

	allowed := make(map[domain.WorkerID]bool, len(selectedWorkers))
	for _, w := range selectedWorkers {
		allowed[w] = true
	}

	confidence, ok := coerceFloat(parsed.Confidence)
	if !ok {
		confidence = 0.5
	}
	confidence = clamp01(confidence)

	var rerun []domain.WorkerID
	for _, id := range parsed.Rerun {
		wid := domain.WorkerID(id)
		if allowed[wid] {
			rerun = append(rerun, wid)
		}
	}

	stability, _ := coerceFloat(parsed.Consistency.OverallStability)

	result = domain.Reflection{
		Confidence:     confidence,
		Contradictions: parsed.Contradictions,
		Rerun:          rerun,
		ConsistencyCheck: domain.ConsistencyCheck{
			OverallStability: clamp01(stability),
			Contradictions:   parsed.Consistency.Contradictions,
			AlignmentSummary: parsed.Consistency.AlignmentSummary,
		},
		ReviewNotes: parsed.ReviewNotes,
	}
	return result
}

// writeSnapshot best-effort dumps r to l.SnapshotPath. A write failure
// (missing directory permissions, full disk) never fails the reflection
// call itself — the snapshot is a convenience for operators inspecting
// data/analysis/ between runs, not part of the run's own state.
func (l *Loop) writeSnapshot(r domain.Reflection, selectedWorkers []domain.WorkerID) {
	if l.SnapshotPath == "" {
		return
	}
	data, err := json.MarshalIndent(reasoningSnapshot{Reflection: r, WorkerIDs: selectedWorkers}, "", "  ")
	if err != nil {
		return
	}
	if dir := filepath.Dir(l.SnapshotPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return
		}
	}
	_ = os.WriteFile(l.SnapshotPath, data, 0o644)
}

// ShouldStop reports whether the reflection loop should stop.
func (l *Loop) ShouldStop(r domain.Reflection, iterationCount int) bool {
	return r.Confidence >= l.ConfidenceFloor || iterationCount >= l.MaxIter
}

// ShrinkOK reports whether rerun is a non-empty, strict subset-by-size
// shrink relative to previous.
func ShrinkOK(rerun, previous []domain.WorkerID) bool {
	return len(rerun) > 0 && len(rerun) < len(previous)
}

func parse(text string) (wireReflection, error) {
	raw := strings.TrimSpace(text)
	if m := jsonObjectPattern.FindString(raw); m != "" {
		raw = m
	}
	var wr wireReflection
	if err := json.Unmarshal([]byte(raw), &wr); err != nil {
		return wireReflection{}, err
	}
	return wr, nil
}

func degraded(note string) domain.Reflection {
	return domain.Reflection{
		Confidence:  0.0,
		Rerun:       nil,
		ReviewNotes: note,
	}
}

// coerceFloat accepts whatever encoding/json produced for a numeric field
// (float64 normally, or a string if the model emitted one) and reports
// whether coercion succeeded.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%f", &f); err == nil {
			return f, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
