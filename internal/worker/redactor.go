package worker

import (
	"context"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/llm"
)

// Redactor is the post-synthesis summarization step: triggered by
// "brief"/"executive summary" cues and invoked on the already-synthesized
// output, not fanned out alongside the other workers. The caller passes
// the synthesis text in place of queryText.
type Redactor struct {
	Model   llm.Model
	ModelID string
}

func (r *Redactor) ID() domain.WorkerID    { return domain.WorkerRedactor }
func (r *Redactor) RequiresEvidence() bool { return false }

func (r *Redactor) Run(ctx context.Context, synthesisText string, _ *domain.FusedEvidence, progress ProgressFunc) domain.WorkerResult {
	progress("condensing into an executive summary")

	out, err := r.Model.Generate(ctx, r.ModelID, []llm.Message{
		{Role: llm.RoleSystem, Content: "Condense the following intelligence brief into a tight executive summary: 3-5 bullet points, no hedging filler."},
		{Role: llm.RoleUser, Content: synthesisText},
	})
	if err != nil {
		return domain.WorkerResult{Status: domain.StatusError, ErrorKind: "generation_unavailable", OutputText: err.Error()}
	}

	return domain.WorkerResult{Status: domain.StatusOK, OutputText: out.Text}
}
