package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/llm"
)

// Reflector is the distinct generation call backing the Reflection &
// Adaptive Re-run Loop. It is intentionally not in router.canonicalOrder:
// reflection may request re-runs but those re-runs dispatch through the
// Executor, not Reflector itself, so internal/reflection calls
// Reflector.Run directly rather than routing it through the Executor's
// worker fan-out.
type Reflector struct {
	Model   llm.Model
	ModelID string
}

func (r *Reflector) ID() domain.WorkerID    { return domain.WorkerReflector }
func (r *Reflector) RequiresEvidence() bool { return true }

// Run asks the generation model to score the current synthesis. The
// caller is expected to have already built the structured prompt (see
// BuildReflectionPrompt) and pass it as queryText; evidence is
// attached only for consistency-check framing.
func (r *Reflector) Run(ctx context.Context, prompt string, evidence *domain.FusedEvidence, progress ProgressFunc) domain.WorkerResult {
	progress("scoring synthesis quality")

	out, err := r.Model.Generate(ctx, r.ModelID, []llm.Message{
		{Role: llm.RoleSystem, Content: reflectionSystemPrompt},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return domain.WorkerResult{Status: domain.StatusError, ErrorKind: "generation_unavailable", OutputText: err.Error()}
	}

	return domain.WorkerResult{Status: domain.StatusOK, OutputText: out.Text, EvidenceUsed: evidence}
}

const reflectionSystemPrompt = `You evaluate an OSINT intelligence brief for quality. Respond with a single JSON object, no surrounding prose:
{
  "confidence": <number 0-1>,
  "contradictions": [<string>, ...],
  "rerun": [<worker id string>, ...],
  "consistency_check": {"overall_stability": <number 0-1>, "contradictions": [<string>, ...], "alignment_summary": <string>},
  "review_notes": <string>
}`

// BuildReflectionPrompt assembles the structured prompt for one
// reflection call: confidence, contradictions referencing worker ids, an
// explicit re-run set, and a structural-vs-event consistency check.
func BuildReflectionPrompt(queryText string, results []domain.WorkerResult, synthesisText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\n", queryText)
	b.WriteString("Worker outputs:\n")
	for _, res := range results {
		fmt.Fprintf(&b, "- %s (%s): %s\n", res.WorkerID, res.Status, truncate(res.OutputText, 1500))
	}
	b.WriteString("\nSynthesis:\n")
	b.WriteString(truncate(synthesisText, 4000))
	return b.String()
}
