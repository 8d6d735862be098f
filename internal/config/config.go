// Package config loads the single configuration document: corpora,
// workers, thresholds, cache policy, server bind address, and CORS
// origins. The document is YAML and is parsed once at startup into a
// plain struct.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/arthurspriet/hawk-ai-go/internal/coreerr"
	"gopkg.in/yaml.v3"
)

// CorpusConfig describes one named evidence corpus.
type CorpusConfig struct {
	ID               string   `yaml:"id"`
	Path             string   `yaml:"path"`
	ReliabilityWeight float64 `yaml:"weight"`
	Tags             []string `yaml:"tags"`
}

// WorkerConfig describes one configured worker.
type WorkerConfig struct {
	ID               string `yaml:"id"`
	ModelID          string `yaml:"model_id"`
	RequiresEvidence bool   `yaml:"requires_evidence"`
	TimeoutMS        int    `yaml:"timeout_ms"`
}

// Thresholds holds the orchestration core's tunable knobs.
type Thresholds struct {
	ConfidenceFloor  float64 `yaml:"confidence_floor"`
	MaxIter          int     `yaml:"max_iter"`
	MaxParallel      int     `yaml:"max_parallel"`
	OverallDeadlineMS int    `yaml:"overall_deadline_ms"`
	GraceWindowMS    int     `yaml:"grace_window_ms"`
}

// CachePolicy holds per-kind expiry and a size cap.
type CachePolicy struct {
	RetrieveExpiry  time.Duration `yaml:"-"`
	WebsearchExpiry time.Duration `yaml:"-"`
	GenerateExpiry  time.Duration `yaml:"-"`
	EmbedExpiry     time.Duration `yaml:"-"`

	RetrieveExpirySeconds  int `yaml:"retrieve_expiry_seconds"`
	WebsearchExpirySeconds int `yaml:"websearch_expiry_seconds"`
	GenerateExpirySeconds  int `yaml:"generate_expiry_seconds"`
	EmbedExpirySeconds     int `yaml:"embed_expiry_seconds"`
	SizeCapBytes           int64 `yaml:"size_cap_bytes"`
}

// ServerConfig holds the HTTP bind address and CORS allow-list.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Document is the single configuration document loaded at startup and
// treated as immutable for the process lifetime, except for the
// hot-reloadable subset exposed by Watch (see reload.go).
type Document struct {
	Corpora    []CorpusConfig `yaml:"corpora"`
	Workers    []WorkerConfig `yaml:"workers"`
	Thresholds Thresholds     `yaml:"thresholds"`
	Cache      CachePolicy    `yaml:"cache"`
	Server     ServerConfig   `yaml:"server"`

	MemoryBackend string `yaml:"memory_backend"` // "sqlite" | "mysql"
	MemoryDSN     string `yaml:"memory_dsn"`
}

// Default returns a Document with the documented defaults
// (confidence floor 0.7, max 2 reflection iterations, parallelism capped
// at 3, 120s overall deadline, 2s grace window).
func Default() Document {
	return Document{
		Thresholds: Thresholds{
			ConfidenceFloor:   0.7,
			MaxIter:           2,
			MaxParallel:       3,
			OverallDeadlineMS: 120_000,
			GraceWindowMS:     2_000,
		},
		Cache: CachePolicy{
			RetrieveExpirySeconds:  0, // no expiry
			WebsearchExpirySeconds: 3600,
			GenerateExpirySeconds:  3600,
			EmbedExpirySeconds:     0,
			SizeCapBytes:           256 << 20,
		},
		Server: ServerConfig{
			Addr: ":8088",
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
			},
		},
		MemoryBackend: "sqlite",
		MemoryDSN:     "data/memory/collaboration.db",
	}
}

// Load reads and validates the configuration document at path. On any
// parse or validation failure it returns a *coreerr.Error with Kind
// ConfigInvalid, which the CLI surface maps to exit code 1.
func Load(path string) (Document, error) {
	doc := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, coreerr.Wrap(coreerr.ConfigInvalid, "config", err)
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, coreerr.Wrap(coreerr.ConfigInvalid, "config", err)
	}
	doc.resolveDurations()
	if err := doc.Validate(); err != nil {
		return doc, err
	}
	return doc, nil
}

func (d *Document) resolveDurations() {
	d.Cache.RetrieveExpiry = time.Duration(d.Cache.RetrieveExpirySeconds) * time.Second
	d.Cache.WebsearchExpiry = time.Duration(d.Cache.WebsearchExpirySeconds) * time.Second
	d.Cache.GenerateExpiry = time.Duration(d.Cache.GenerateExpirySeconds) * time.Second
	d.Cache.EmbedExpiry = time.Duration(d.Cache.EmbedExpirySeconds) * time.Second
}

// Validate checks structural invariants the rest of the core relies on:
// every corpus has a non-empty id and a weight in (0,1], every worker
// has a non-empty id, and the thresholds are within sane bounds.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Corpora))
	for _, c := range d.Corpora {
		if c.ID == "" {
			return coreerr.New(coreerr.ConfigInvalid, "config", "corpus missing id")
		}
		if c.ReliabilityWeight <= 0 || c.ReliabilityWeight > 1 {
			return coreerr.New(coreerr.ConfigInvalid, "config", fmt.Sprintf("corpus %q weight out of (0,1]", c.ID))
		}
		if seen[c.ID] {
			return coreerr.New(coreerr.ConfigInvalid, "config", fmt.Sprintf("duplicate corpus id %q", c.ID))
		}
		seen[c.ID] = true
	}
	workerSeen := make(map[string]bool, len(d.Workers))
	for _, w := range d.Workers {
		if w.ID == "" {
			return coreerr.New(coreerr.ConfigInvalid, "config", "worker missing id")
		}
		if workerSeen[w.ID] {
			return coreerr.New(coreerr.ConfigInvalid, "config", fmt.Sprintf("duplicate worker id %q", w.ID))
		}
		workerSeen[w.ID] = true
	}
	if d.Thresholds.MaxIter < 1 {
		return coreerr.New(coreerr.ConfigInvalid, "config", "thresholds.max_iter must be >= 1")
	}
	if d.Thresholds.MaxParallel < 1 {
		return coreerr.New(coreerr.ConfigInvalid, "config", "thresholds.max_parallel must be >= 1")
	}
	return nil
}
