// Package synthesis implements the Synthesis Stage: building the
// framework-scaffolded prompt and streaming the final brief.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/llm"
)

// EvidenceCharBudget bounds how much ranked evidence text is folded into
// the synthesis prompt, cutting only at a record boundary.
const EvidenceCharBudget = 8000

// DeltaSink receives each streamed fragment as it is produced, in order.
type DeltaSink func(text string)

// frameworkScaffolds is the fixed table of structural prompt scaffolds.
// Framework selection is data-driven, not an extension point — adding a
// framework means adding a table row.
var frameworkScaffolds = map[domain.Framework]string{
	domain.FrameworkPMESII: "Structure the brief under these six headers, in order: Political, Military, Economic, Social, Information, Infrastructure.",
	domain.FrameworkDIME:   "Structure the brief under these four headers, in order: Diplomatic, Information, Military, Economic.",
	domain.FrameworkSWOT:   "Structure the brief under these four headers, in order: Strengths, Weaknesses, Opportunities, Threats.",
	domain.FrameworkNone:   "Write free-flowing prose; no mandated section headers.",
}

// Synthesizer produces the final brief via streaming generation.
type Synthesizer struct {
	Model   llm.Model
	ModelID string
}

// Synthesize builds the prompt from query, fused evidence, and worker
// results under framework's scaffold, streams the generation, forwards
// every delta to sink, and returns the fully accumulated text. The
// returned string is always byte-identical to the concatenation of what
// was sent to sink, since both are built from the same stream in the
// same loop.
func (s *Synthesizer) Synthesize(ctx context.Context, queryText string, evidence *domain.FusedEvidence, results []domain.WorkerResult, framework domain.Framework, sink DeltaSink) (string, error) {
	prompt := buildPrompt(queryText, evidence, results, framework)

	stream, err := s.Model.GenerateStream(ctx, s.ModelID, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are an OSINT synthesis engine producing a single coherent intelligence brief from specialist worker outputs and ranked evidence."},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("synthesis: start stream: %w", err)
	}

	var b strings.Builder
	for chunk := range stream {
		if chunk.Err != nil {
			return b.String(), fmt.Errorf("synthesis: stream: %w", chunk.Err)
		}
		if chunk.Delta != "" {
			b.WriteString(chunk.Delta)
			sink(chunk.Delta)
		}
		if chunk.Done {
			break
		}
	}
	return b.String(), nil
}

func buildPrompt(queryText string, evidence *domain.FusedEvidence, results []domain.WorkerResult, framework domain.Framework) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\n", queryText)
	fmt.Fprintf(&b, "Analytical framework: %s. %s\n\n", framework, frameworkScaffolds[framework])

	b.WriteString("Worker findings:\n")
	for _, r := range results {
		if r.Status != domain.StatusOK {
			continue
		}
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", r.WorkerID, r.OutputText)
	}

	b.WriteString(evidenceSection(evidence))
	return b.String()
}

// evidenceSection folds ranked evidence in, greedily, up to
// EvidenceCharBudget, cutting only at record boundaries.
func evidenceSection(evidence *domain.FusedEvidence) string {
	if evidence == nil || len(evidence.Records) == 0 {
		return "Supporting evidence: none retrieved.\n"
	}

	var b strings.Builder
	b.WriteString("Supporting evidence (ranked):\n")
	used := b.Len()
	for i, rec := range evidence.Records {
		line := fmt.Sprintf("%d. [%s] %s\n", i+1, rec.CorpusID, rec.Text)
		if used+len(line) > EvidenceCharBudget {
			break
		}
		b.WriteString(line)
		used += len(line)
	}
	return b.String()
}
