// Package fusion implements Context Fusion: merging per-corpus evidence
// retrievals into a single ranked, deduplicated, reliability-weighted list.
// It is pure and side-effect free — a deterministic function with no
// I/O, since determinism here is Fusion's whole job.
package fusion

import (
	"sort"
	"strings"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// FingerprintPrefixLen bounds the dedup fingerprint to the first N
// characters of the normalized text.
const FingerprintPrefixLen = 256

// Fuse merges retrievals (keyed by corpus) into a domain.FusedEvidence.
// weights supplies each corpus's reliability_weight; a corpus absent from
// weights contributes a weight of 0 (its records still appear but sink to
// the bottom of the ranking — this should not happen in practice since
// Retrieve only returns records for configured corpora).
func Fuse(retrievals map[domain.CorpusID][]domain.EvidenceRecord, weights map[domain.CorpusID]float64, framework domain.Framework) domain.FusedEvidence {
	corpora := make([]domain.CorpusID, 0, len(retrievals))
	for id := range retrievals {
		corpora = append(corpora, id)
	}
	sort.Slice(corpora, func(i, j int) bool { return corpora[i] < corpora[j] })

	// Build the flat candidate list in (corpus_id asc, insertion order)
	// order so that a later stable sort by weighted_score preserves this
	// as the tie-break order.
	type candidate struct {
		record domain.EvidenceRecord
		fp     string
	}
	var ordered []candidate
	for _, id := range corpora {
		weight := weights[id]
		for _, rec := range retrievals[id] {
			rec.CorpusID = id
			rec.WeightedScore = rec.SimilarityScore * weight
			ordered = append(ordered, candidate{record: rec, fp: fingerprint(rec.Text)})
		}
	}

	kept := make([]candidate, 0, len(ordered))
	bestIdx := make(map[string]int, len(ordered))
	for _, c := range ordered {
		if idx, ok := bestIdx[c.fp]; ok {
			if c.record.WeightedScore > kept[idx].record.WeightedScore {
				kept[idx] = c
			}
			continue
		}
		bestIdx[c.fp] = len(kept)
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].record.WeightedScore > kept[j].record.WeightedScore
	})

	records := make([]domain.EvidenceRecord, len(kept))
	ratio := make(map[domain.CorpusID]int, len(corpora))
	for i, c := range kept {
		records[i] = c.record
		ratio[c.record.CorpusID]++
	}

	return domain.FusedEvidence{
		Records:   records,
		Ratio:     ratio,
		Framework: framework,
	}
}

// fingerprint normalizes whitespace, lowercases, and truncates to
// FingerprintPrefixLen runes to key the dedup pass.
func fingerprint(text string) string {
	fields := strings.Fields(text)
	normalized := strings.ToLower(strings.Join(fields, " "))
	runes := []rune(normalized)
	if len(runes) > FingerprintPrefixLen {
		runes = runes[:FingerprintPrefixLen]
	}
	return string(runes)
}
