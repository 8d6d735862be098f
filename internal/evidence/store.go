// Package evidence implements the Evidence Store: uniform similarity
// retrieval over named corpora, each carrying a fixed reliability weight.
// The index itself is a minimal dense-vector index loaded from a JSONL
// corpus file — the specific ingestion pipelines that produce those files
// (conflict-event feeds, country factbooks, …) are external collaborators,
// mirrored here only by their retrieval interface rather than importing
// any one pipeline's implementation.
package evidence

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/arthurspriet/hawk-ai-go/internal/coreerr"
	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/llm"
)

// CorpusInfo is what list_corpora exposes about one configured corpus.
type CorpusInfo struct {
	ReliabilityWeight float64
	Tags              []string
}

// record is one entry of a loaded corpus index.
type record struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Vector   []float32      `json:"vector"`
	Metadata map[string]any `json:"metadata"`
}

// Store is the Evidence Store. The embedder is injected behind a narrow
// interface so test doubles and real providers are interchangeable.
type Store struct {
	mu      sync.RWMutex
	corpora map[domain.CorpusID]CorpusInfo
	indexes map[domain.CorpusID][]record

	embedder     llm.Embedder
	embedModelID string
	timeout      time.Duration
	strict       bool
	logger       *slog.Logger
}

// New creates an empty Store over the given configured corpora. Corpus
// indexes are loaded separately via LoadCorpus so that a missing index
// file degrades to "corpus not built" rather than a hard startup failure.
func New(corpora map[domain.CorpusID]CorpusInfo, embedder llm.Embedder, embedModelID string, timeout time.Duration, strict bool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{
		corpora:      corpora,
		indexes:      make(map[domain.CorpusID][]record),
		embedder:     embedder,
		embedModelID: embedModelID,
		timeout:      timeout,
		strict:       strict,
		logger:       logger,
	}
}

// LoadCorpus reads a corpus index from a JSONL file at path, one record
// object per line. Call this once per corpus at startup.
func (s *Store) LoadCorpus(corpusID domain.CorpusID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return coreerr.Wrap(coreerr.CorpusUnavailable, "evidence.LoadCorpus", err)
	}
	defer f.Close()

	var recs []record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r record
		if err := json.Unmarshal(line, &r); err != nil {
			s.logger.Warn("dropping malformed corpus record", "corpus_id", corpusID, "error", err)
			continue
		}
		recs = append(recs, r)
	}
	if err := scanner.Err(); err != nil {
		return coreerr.Wrap(coreerr.CorpusUnavailable, "evidence.LoadCorpus", err)
	}

	s.mu.Lock()
	s.indexes[corpusID] = recs
	s.mu.Unlock()
	return nil
}

// ListCorpora returns a copy of the configured corpora and their weights.
func (s *Store) ListCorpora() map[domain.CorpusID]CorpusInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.CorpusID]CorpusInfo, len(s.corpora))
	for k, v := range s.corpora {
		out[k] = v
	}
	return out
}

// Weights returns corpus_id -> reliability_weight, for Fusion.
func (s *Store) Weights() map[domain.CorpusID]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.CorpusID]float64, len(s.corpora))
	for k, v := range s.corpora {
		out[k] = v.ReliabilityWeight
	}
	return out
}

// Retrieve returns up to topK EvidenceRecords from corpusID, ordered by
// descending similarity. A corpus that is not configured or whose index
// has not been loaded fails with CorpusUnavailable. An embedder timeout
// (s.timeout; New defaults a non-positive timeout to 5s) yields an empty result and a logged warning
// instead of an error, unless the Store is in strict mode.
func (s *Store) Retrieve(ctx context.Context, queryText string, corpusID domain.CorpusID, topK int) ([]domain.EvidenceRecord, error) {
	s.mu.RLock()
	_, configured := s.corpora[corpusID]
	recs := s.indexes[corpusID]
	s.mu.RUnlock()

	if !configured {
		return nil, coreerr.New(coreerr.CorpusUnavailable, "evidence.Retrieve", fmt.Sprintf("corpus %q is not configured", corpusID))
	}
	if len(recs) == 0 {
		return nil, coreerr.New(coreerr.CorpusUnavailable, "evidence.Retrieve", fmt.Sprintf("corpus %q has no loaded index", corpusID))
	}

	embedCtx := ctx
	var cancel context.CancelFunc
	if s.timeout > 0 {
		embedCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	queryVec, err := s.embedder.Embed(embedCtx, s.embedModelID, queryText)
	if err != nil {
		if s.strict {
			return nil, coreerr.Wrap(coreerr.EmbedderUnavailable, "evidence.Retrieve", err)
		}
		s.logger.Warn("embedder unavailable, returning empty retrieval", "corpus_id", corpusID, "error", err)
		return []domain.EvidenceRecord{}, nil
	}

	type scored struct {
		rec   record
		score float64
	}
	scoredRecs := make([]scored, 0, len(recs))
	for _, r := range recs {
		scoredRecs = append(scoredRecs, scored{rec: r, score: cosineSimilarity(queryVec, r.Vector)})
	}
	sort.SliceStable(scoredRecs, func(i, j int) bool { return scoredRecs[i].score > scoredRecs[j].score })

	if topK <= 0 {
		topK = 5
	}
	if topK > len(scoredRecs) {
		topK = len(scoredRecs)
	}

	out := make([]domain.EvidenceRecord, topK)
	for i := 0; i < topK; i++ {
		out[i] = domain.EvidenceRecord{
			CorpusID:        corpusID,
			Text:            scoredRecs[i].rec.Text,
			SimilarityScore: clamp01(scoredRecs[i].score),
			Metadata:        scoredRecs[i].rec.Metadata,
		}
	}
	return out, nil
}

// RetrieveMany probes every requested corpus independently and collects
// the results into the map shape Fusion expects. A CorpusUnavailable
// error for any single corpus is logged and that corpus is simply absent
// from the result — a missing corpus degrades silently rather than
// failing the whole retrieval.
func (s *Store) RetrieveMany(ctx context.Context, queryText string, corpusIDs []domain.CorpusID, topK int) map[domain.CorpusID][]domain.EvidenceRecord {
	out := make(map[domain.CorpusID][]domain.EvidenceRecord, len(corpusIDs))
	for _, id := range corpusIDs {
		recs, err := s.Retrieve(ctx, queryText, id, topK)
		if err != nil {
			s.logger.Warn("corpus unavailable, skipping", "corpus_id", id, "error", err)
			continue
		}
		out[id] = recs
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
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
