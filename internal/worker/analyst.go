package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/llm"
)

// Analyst produces a structured analytical read of the query against the
// fused evidence. It is the default worker when no cue matches (spec
// §4.5) and always requires evidence.
type Analyst struct {
	Model   llm.Model
	ModelID string
}

func (a *Analyst) ID() domain.WorkerID        { return domain.WorkerAnalyst }
func (a *Analyst) RequiresEvidence() bool     { return true }

func (a *Analyst) Run(ctx context.Context, queryText string, evidence *domain.FusedEvidence, progress ProgressFunc) domain.WorkerResult {
	progress("reviewing evidence")

	prompt := buildAnalystPrompt(queryText, evidence)
	out, err := a.Model.Generate(ctx, a.ModelID, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an OSINT analyst. Be concise, evidence-grounded, and explicit about uncertainty."},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return domain.WorkerResult{Status: domain.StatusError, ErrorKind: "generation_unavailable", OutputText: err.Error()}
	}

	return domain.WorkerResult{
		Status:       domain.StatusOK,
		OutputText:   out.Text,
		EvidenceUsed: evidence,
	}
}

func buildAnalystPrompt(queryText string, evidence *domain.FusedEvidence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\n", queryText)
	if evidence == nil || len(evidence.Records) == 0 {
		b.WriteString("No evidence was retrieved. Note this limitation explicitly.\n")
		return b.String()
	}
	b.WriteString("Evidence (ranked):\n")
	for i, rec := range evidence.Records {
		fmt.Fprintf(&b, "%d. [%s, score=%.3f] %s\n", i+1, rec.CorpusID, rec.WeightedScore, rec.Text)
	}
	return b.String()
}
