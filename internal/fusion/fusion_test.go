package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

func TestFuseRanksByWeightedScore(t *testing.T) {
	retrievals := map[domain.CorpusID][]domain.EvidenceRecord{
		"case-files": {
			{Text: "alpha report on the border incident", SimilarityScore: 0.9},
		},
		"open-source": {
			{Text: "unrelated news wire story", SimilarityScore: 0.95},
		},
	}
	weights := map[domain.CorpusID]float64{"case-files": 1.0, "open-source": 0.5}

	out := Fuse(retrievals, weights, domain.FrameworkNone)

	assert.Len(t, out.Records, 2)
	assert.Equal(t, domain.CorpusID("case-files"), out.Records[0].CorpusID)
	assert.InDelta(t, 0.9, out.Records[0].WeightedScore, 1e-9)
	assert.InDelta(t, 0.475, out.Records[1].WeightedScore, 1e-9)
	assert.Equal(t, domain.FrameworkNone, out.Framework)
	assert.Equal(t, 1, out.Ratio["case-files"])
	assert.Equal(t, 1, out.Ratio["open-source"])
}

func TestFuseDedupesByFingerprintKeepingHigherScore(t *testing.T) {
	retrievals := map[domain.CorpusID][]domain.EvidenceRecord{
		"a": {{Text: "Same   Text   here", SimilarityScore: 0.4}},
		"b": {{Text: "same text here", SimilarityScore: 0.9}},
	}
	weights := map[domain.CorpusID]float64{"a": 1.0, "b": 1.0}

	out := Fuse(retrievals, weights, domain.FrameworkNone)

	assert.Len(t, out.Records, 1)
	assert.Equal(t, domain.CorpusID("b"), out.Records[0].CorpusID)
}

func TestFuseMissingWeightSinksToZero(t *testing.T) {
	retrievals := map[domain.CorpusID][]domain.EvidenceRecord{
		"unweighted": {{Text: "some record", SimilarityScore: 0.8}},
	}

	out := Fuse(retrievals, map[domain.CorpusID]float64{}, domain.FrameworkSWOT)

	assert.Len(t, out.Records, 1)
	assert.Equal(t, 0.0, out.Records[0].WeightedScore)
}

func TestFingerprintTruncatesAndNormalizes(t *testing.T) {
	long := ""
	for i := 0; i < 400; i++ {
		long += "x"
	}
	fp := fingerprint(long)
	assert.Len(t, fp, FingerprintPrefixLen)

	assert.Equal(t, fingerprint("Hello   World"), fingerprint("hello world"))
}
