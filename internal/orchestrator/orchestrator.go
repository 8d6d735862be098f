// Package orchestrator implements the Context Orchestrator: mapping a
// query to the set of corpora to probe and the analytical framework to
// apply to synthesis. The theme table is a static, data-driven mapping —
// adding a theme is a one-table code change, not a runtime extension
// point.
package orchestrator

import (
	"sort"
	"strings"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// Theme is a closed classification bucket for query intent.
type Theme string

const (
	ThemeConflictSecurity   Theme = "conflict_security"
	ThemeEconomyFinance     Theme = "economy_finance"
	ThemeGovernanceDemocracy Theme = "governance_democracy"
	ThemeDevelopmentSocial  Theme = "development_social"
	ThemeGeneric            Theme = "generic"
)

// themeFrameworks is the fixed theme -> framework table.
var themeFrameworks = map[Theme]domain.Framework{
	ThemeConflictSecurity:    domain.FrameworkPMESII,
	ThemeEconomyFinance:      domain.FrameworkDIME,
	ThemeGovernanceDemocracy: domain.FrameworkPMESII,
	ThemeDevelopmentSocial:   domain.FrameworkSWOT,
	ThemeGeneric:             domain.FrameworkNone,
}

// themeKeywords is the bag-of-keywords table driving theme classification.
// Checked in the fixed order below so that a query matching multiple
// themes deterministically resolves to the first one listed.
var themeKeywords = []struct {
	theme    Theme
	keywords []string
}{
	{ThemeConflictSecurity, []string{"conflict", "war", "militia", "insurgency", "attack", "security", "violence", "ceasefire", "escalation"}},
	{ThemeEconomyFinance, []string{"economy", "economic", "gdp", "trade", "sanction", "inflation", "finance", "leverage", "imf", "debt"}},
	{ThemeGovernanceDemocracy, []string{"election", "government", "governance", "democracy", "parliament", "corruption", "policy"}},
	{ThemeDevelopmentSocial, []string{"development", "humanitarian", "poverty", "education", "health", "refugee", "aid"}},
}

// themePreferredCorpora maps a theme to the corpora it prefers, in
// priority order. Corpora not present in the caller's available set are
// dropped and a non-empty intersection is never padded; an empty
// intersection falls back to every available corpus.
var themePreferredCorpora = map[Theme][]domain.CorpusID{
	ThemeConflictSecurity:    {"acled", "gdelt", "un_security_council"},
	ThemeEconomyFinance:      {"imf", "world_bank", "gdelt"},
	ThemeGovernanceDemocracy: {"freedom_house", "un_security_council", "gdelt"},
	ThemeDevelopmentSocial:   {"world_bank", "unicef", "gdelt"},
}

// Selection is the Context Orchestrator's output.
type Selection struct {
	Corpora   []domain.CorpusID
	Framework domain.Framework
}

// Orchestrator implements select(query_text) over a fixed set of available
// corpora (the ones Evidence Store has configured, regardless of whether
// their index is currently loaded — selection and availability are
// different concerns).
type Orchestrator struct {
	available []domain.CorpusID // sorted, for deterministic "select all" fallback
}

// New builds an Orchestrator over the given available corpus ids.
func New(available []domain.CorpusID) *Orchestrator {
	sorted := make([]domain.CorpusID, len(available))
	copy(sorted, available)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &Orchestrator{available: sorted}
}

// Select maps query_text to a Selection.
func (o *Orchestrator) Select(queryText string) Selection {
	theme := classify(queryText)
	framework := themeFrameworks[theme]

	if theme == ThemeGeneric {
		return Selection{Corpora: o.available, Framework: domain.FrameworkNone}
	}

	availableSet := make(map[domain.CorpusID]bool, len(o.available))
	for _, id := range o.available {
		availableSet[id] = true
	}

	var corpora []domain.CorpusID
	for _, id := range themePreferredCorpora[theme] {
		if availableSet[id] {
			corpora = append(corpora, id)
		}
	}
	if len(corpora) == 0 {
		corpora = o.available
	}
	return Selection{Corpora: corpora, Framework: framework}
}

func classify(queryText string) Theme {
	lower := strings.ToLower(queryText)
	for _, entry := range themeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.theme
			}
		}
	}
	return ThemeGeneric
}
