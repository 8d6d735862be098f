// Package janitor runs the orchestration core's periodic maintenance:
// cache expiry sweeps and buffered-history compaction. It wraps
// robfig/cron/v3, validating every schedule at registration and stopping
// cleanly by draining cron's own Stop() context, over a small registry
// of named maintenance tasks run on independent schedules.
package janitor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/arthurspriet/hawk-ai-go/internal/cache"
	"github.com/arthurspriet/hawk-ai-go/internal/emit"
)

// Janitor owns a cron scheduler driving the cache sweep and history
// compaction on independent schedules.
type Janitor struct {
	cron    *cron.Cron
	logger  *slog.Logger
	mu      sync.Mutex
	running bool
}

// New builds a Janitor. A nil logger falls back to slog.Default.
func New(logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		cron:   cron.New(),
		logger: logger.With("component", "janitor"),
	}
}

// RegisterCacheSweep schedules c.Sweep() on the given cron expression
// (e.g. "@every 5m"). A malformed expression is returned immediately so
// startup fails fast instead of silently never sweeping.
func (j *Janitor) RegisterCacheSweep(schedule string, c *cache.Cache) error {
	_, err := j.cron.AddFunc(schedule, func() {
		before := c.Stats()
		c.Sweep()
		after := c.Stats()
		j.logger.Info("cache sweep completed",
			"evicted", after.Evictions-before.Evictions,
			"size", after.Size,
		)
	})
	if err != nil {
		return fmt.Errorf("janitor: register cache sweep: %w", err)
	}
	return nil
}

// RegisterHistoryCompaction schedules b.Clear("") on the given cron
// expression, bounding the BufferedEmitter's memory growth for
// long-lived streaming servers.
func (j *Janitor) RegisterHistoryCompaction(schedule string, b *emit.BufferedEmitter) error {
	_, err := j.cron.AddFunc(schedule, func() {
		b.Clear("")
		j.logger.Info("history buffer compacted")
	})
	if err != nil {
		return fmt.Errorf("janitor: register history compaction: %w", err)
	}
	return nil
}

// Start begins running every registered job on its schedule.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return
	}
	j.cron.Start()
	j.running = true
	j.logger.Info("janitor started", "jobs", len(j.cron.Entries()))
}

// Stop drains any in-flight job before returning.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.running {
		return
	}
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.running = false
	j.logger.Info("janitor stopped")
}
