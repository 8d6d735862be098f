// Package router implements the Router / Intent Classifier: a
// deterministic cue-based rule set mapping query text to a task kind and a
// canonically ordered worker set.
package router

import (
	"strings"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// canonicalOrder fixes the worker-set ordering used whenever more than one
// worker is selected, so dispatch order never depends on which cues fired
// or in what order they matched. redactor is intentionally absent — it
// runs as a post-step on the synthesized output, never fanned out by the
// Executor alongside the others.
var canonicalOrder = []domain.WorkerID{
	domain.WorkerAnalyst,
	domain.WorkerGeo,
	domain.WorkerSearch,
	domain.WorkerCode,
}

type cue struct {
	worker   domain.WorkerID
	keywords []string
}

var cues = []cue{
	{domain.WorkerGeo, []string{
		"sudan", "ukraine", "syria", "yemen", "gaza", "sahel", "libya", "mali", "somalia",
		"africa", "europe", "asia", "middle east", "region", "border", "country",
	}},
	{domain.WorkerAnalyst, []string{
		"analyze", "analyse", "assess", "trend", "impact", "evaluate", "implications",
	}},
	{domain.WorkerSearch, []string{
		"today", "latest", "news", "recent", "breaking", "this week",
	}},
	{domain.WorkerCode, []string{
		"compute", "plot", "table of", "chart", "calculate", "graph",
	}},
}

// redactorCues trigger the post-synthesis summarization step.
var redactorCues = []string{"brief", "executive summary", "summarize", "summarise", "tl;dr"}

// Selection is the Router's output.
type Selection struct {
	TaskKind        domain.TaskKind
	SelectedWorkers []domain.WorkerID
	UseRedactor     bool
}

// Select maps query_text to a task kind and an ordered worker set.
// Multiple cues compose by set union; ordering follows canonicalOrder
// regardless of which cues fired or in what order they matched in the
// text.
func Select(queryText string) Selection {
	lower := strings.ToLower(queryText)

	matched := make(map[domain.WorkerID]bool)
	for _, c := range cues {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				matched[c.worker] = true
				break
			}
		}
	}

	useRedactor := false
	for _, kw := range redactorCues {
		if strings.Contains(lower, kw) {
			useRedactor = true
			break
		}
	}

	var selected []domain.WorkerID
	for _, w := range canonicalOrder {
		if matched[w] {
			selected = append(selected, w)
		}
	}
	if len(selected) == 0 {
		selected = []domain.WorkerID{domain.WorkerAnalyst}
	}

	taskKind := taskKindOf(selected[0])
	if len(selected) > 1 {
		taskKind = domain.TaskCompound
	}

	return Selection{TaskKind: taskKind, SelectedWorkers: selected, UseRedactor: useRedactor}
}

func taskKindOf(w domain.WorkerID) domain.TaskKind {
	switch w {
	case domain.WorkerSearch:
		return domain.TaskSearch
	case domain.WorkerGeo:
		return domain.TaskGeospatial
	case domain.WorkerCode:
		return domain.TaskCode
	case domain.WorkerAnalyst:
		return domain.TaskAnalyze
	default:
		return domain.TaskAnalyze
	}
}
