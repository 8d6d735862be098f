// Command hawkai is the orchestration server and operator CLI: `serve`
// starts the HTTP surface, `index` reports where an external ingester
// should build one configured corpus, `status` prints the resolved
// configuration and exits. Config path is a flag.String with
// getEnv-style environment fallbacks; startup errors are logged and
// mapped to exit codes, and an unknown subcommand calls log.Fatalf.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/arthurspriet/hawk-ai-go/internal/cache"
	"github.com/arthurspriet/hawk-ai-go/internal/config"
	"github.com/arthurspriet/hawk-ai-go/internal/coreerr"
	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	"github.com/arthurspriet/hawk-ai-go/internal/emit"
	"github.com/arthurspriet/hawk-ai-go/internal/evidence"
	"github.com/arthurspriet/hawk-ai-go/internal/executor"
	"github.com/arthurspriet/hawk-ai-go/internal/janitor"
	"github.com/arthurspriet/hawk-ai-go/internal/llm"
	"github.com/arthurspriet/hawk-ai-go/internal/llm/anthropic"
	"github.com/arthurspriet/hawk-ai-go/internal/llm/openai"
	"github.com/arthurspriet/hawk-ai-go/internal/logging"
	"github.com/arthurspriet/hawk-ai-go/internal/memory"
	"github.com/arthurspriet/hawk-ai-go/internal/metrics"
	"github.com/arthurspriet/hawk-ai-go/internal/orchestrator"
	"github.com/arthurspriet/hawk-ai-go/internal/reflection"
	"github.com/arthurspriet/hawk-ai-go/internal/run"
	"github.com/arthurspriet/hawk-ai-go/internal/synthesis"
	"github.com/arthurspriet/hawk-ai-go/internal/transport"
	"github.com/arthurspriet/hawk-ai-go/internal/worker"
)

const (
	exitOK                = 0
	exitConfigInvalid     = 1
	exitRuntimeError      = 2
	exitDependencyMissing = 3
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	configPath := flag.String("config", getEnv("HAWKAI_CONFIG", "config/hawkai.yaml"), "path to the configuration document")
	flag.Parse()

	args := flag.Args()
	sub := "serve"
	if len(args) > 0 {
		sub = args[0]
	}

	switch sub {
	case "serve":
		os.Exit(runServe(*configPath))
	case "status":
		os.Exit(runStatus(*configPath))
	case "index":
		os.Exit(runIndex(*configPath, args[1:]))
	default:
		log.Fatalf("unknown subcommand %q (want serve|status|index)", sub)
	}
}

func runStatus(configPath string) int {
	doc, err := config.Load(configPath)
	if err != nil {
		log.Printf("config error: %v", err)
		return exitConfigInvalid
	}
	fmt.Printf("hawkai status\n  config: %s\n  addr: %s\n  corpora: %d\n  workers: %d\n  memory backend: %s\n",
		configPath, doc.Server.Addr, len(doc.Corpora), len(doc.Workers), doc.MemoryBackend)
	return exitOK
}

func runIndex(configPath string, args []string) int {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	corpusID := fs.String("corpus", "", "corpus id to (re)build")
	_ = fs.Parse(args)

	if *corpusID == "" {
		log.Printf("index: -corpus is required")
		return exitRuntimeError
	}

	doc, err := config.Load(configPath)
	if err != nil {
		log.Printf("config error: %v", err)
		return exitConfigInvalid
	}
	for _, c := range doc.Corpora {
		if c.ID == *corpusID {
			log.Printf("index: corpus %q builds externally; point its ingester at %s", c.ID, c.Path)
			return exitOK
		}
	}
	log.Printf("index: corpus %q not found in configuration", *corpusID)
	return exitRuntimeError
}

func runServe(configPath string) int {
	logger := logging.Default("startup")

	doc, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return exitConfigInvalid
	}

	core, mem, janitorSvc, err := wireCore(doc, logger)
	if err != nil {
		var ce *coreerr.Error
		if errors.As(err, &ce) && ce.Kind == coreerr.EmbedderUnavailable {
			logger.Error("dependency unreachable at startup", "error", err)
			return exitDependencyMissing
		}
		logger.Error("failed to wire orchestration core", "error", err)
		return exitRuntimeError
	}
	defer mem.Close()

	janitorSvc.Start()
	defer janitorSvc.Stop()

	mtr := metrics.New(nil)
	buffered := emit.NewBufferedEmitter()
	core.Emitter = buffered

	corpora := make([]domain.CorpusID, 0, len(doc.Corpora))
	workerIDs := make([]domain.WorkerID, 0, len(doc.Workers))
	for _, c := range doc.Corpora {
		corpora = append(corpora, domain.CorpusID(c.ID))
	}
	for _, w := range doc.Workers {
		workerIDs = append(workerIDs, domain.WorkerID(w.ID))
	}

	server := &transport.Server{
		Core:     core,
		Buffered: buffered,
		Memory:   mem,
		Metrics:  mtr,
		Corpora:  corpora,
		Workers:  workerIDs,
	}
	engine := transport.NewEngine(server, doc.Server.CORSOrigins)

	httpServer := &http.Server{Addr: doc.Server.Addr, Handler: engine}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", doc.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
		return exitRuntimeError
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return exitRuntimeError
	}
	return exitOK
}

// wireCore builds every collaborator the orchestration core needs from
// the loaded configuration document: one generation model shared across
// synthesis/workers/reflection, the evidence store with its corpus
// indexes loaded, the bounded executor, and the reflection loop.
func wireCore(doc config.Document, logger *slog.Logger) (*run.Core, memory.Store, *janitor.Janitor, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, nil, nil, coreerr.New(coreerr.EmbedderUnavailable, "startup", "ANTHROPIC_API_KEY not set")
	}
	model := llm.Model(llm.NewRetryModel(anthropic.New(apiKey)))

	embedKey := os.Getenv("OPENAI_API_KEY")
	if embedKey == "" {
		return nil, nil, nil, coreerr.New(coreerr.EmbedderUnavailable, "startup", "OPENAI_API_KEY not set")
	}
	embedder := openai.New(embedKey)

	corpusInfo := make(map[domain.CorpusID]evidence.CorpusInfo, len(doc.Corpora))
	for _, c := range doc.Corpora {
		corpusInfo[domain.CorpusID(c.ID)] = evidence.CorpusInfo{ReliabilityWeight: c.ReliabilityWeight, Tags: c.Tags}
	}
	store := evidence.New(corpusInfo, embedder, "text-embedding-3-small", 10*time.Second, false, logging.New(os.Stderr, "evidence", false))
	for _, c := range doc.Corpora {
		if err := store.LoadCorpus(domain.CorpusID(c.ID), c.Path); err != nil {
			logger.Warn("corpus failed to load, continuing without it", "corpus", c.ID, "error", err)
		}
	}

	available := make([]domain.CorpusID, 0, len(doc.Corpora))
	for id := range corpusInfo {
		available = append(available, id)
	}
	orch := orchestrator.New(available)

	reflector := &worker.Reflector{Model: model, ModelID: "claude-reflect"}
	reflectionLoop := reflection.New(reflector, doc.Thresholds.ConfidenceFloor, doc.Thresholds.MaxIter)
	reflectionLoop.SnapshotPath = filepath.Join("data", "analysis", "last_reasoning.json")

	registry := buildRegistry(doc, model)

	exec := executor.New(executor.Config{
		MaxParallel:     doc.Thresholds.MaxParallel,
		OverallDeadline: time.Duration(doc.Thresholds.OverallDeadlineMS) * time.Millisecond,
		GraceWindow:     time.Duration(doc.Thresholds.GraceWindowMS) * time.Millisecond,
	})

	mem, err := openMemory(doc)
	if err != nil {
		return nil, nil, nil, err
	}

	c := cache.New(doc.Cache.SizeCapBytes)

	janitorSvc := janitor.New(logging.New(os.Stderr, "janitor", false))
	if err := janitorSvc.RegisterCacheSweep("@every 5m", c); err != nil {
		return nil, nil, nil, err
	}

	core := &run.Core{
		Orchestrator: orch,
		Evidence:     store,
		Executor:     exec,
		Synthesizer:  &synthesis.Synthesizer{Model: model, ModelID: "claude-synthesize"},
		Reflection:   reflectionLoop,
		Workers:      registry,
		Memory:       mem,
		Cache:        c,
	}
	return core, mem, janitorSvc, nil
}

func buildRegistry(doc config.Document, model llm.Model) run.MapRegistry {
	registry := make(run.MapRegistry, len(doc.Workers))
	for _, w := range doc.Workers {
		id := domain.WorkerID(w.ID)
		switch id {
		case domain.WorkerAnalyst:
			registry[id] = &worker.Analyst{Model: model, ModelID: w.ModelID}
		case domain.WorkerSearch:
			registry[id] = &worker.Search{Searcher: worker.NewHTTPSearcher(getEnv("HAWKAI_SEARCH_ENDPOINT", ""))}
		case domain.WorkerGeo:
			registry[id] = &worker.Geo{ArtifactDir: getEnv("HAWKAI_MAPS_DIR", "data/maps")}
		case domain.WorkerCode:
			registry[id] = &worker.Code{Interpreter: "python3"}
		case domain.WorkerRedactor:
			registry[id] = &worker.Redactor{Model: model, ModelID: w.ModelID}
		}
	}
	return registry
}

func openMemory(doc config.Document) (memory.Store, error) {
	switch doc.MemoryBackend {
	case "", "sqlite":
		if dir := filepath.Dir(doc.MemoryDSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, coreerr.Wrap(coreerr.ConfigInvalid, "config", err)
			}
		}
		return memory.NewSQLiteStore(doc.MemoryDSN)
	case "mysql":
		return memory.NewMySQLStore(doc.MemoryDSN)
	default:
		return nil, coreerr.New(coreerr.ConfigInvalid, "config", fmt.Sprintf("unknown memory_backend %q", doc.MemoryBackend))
	}
}
