// Package memory implements the Collaboration Memory: an append-only,
// queryable record of every Run, backed by a single-writer SQLite
// database in WAL mode with each row holding its RunRecord as a JSON
// payload column. Append never updates an existing row; a revision is a
// new RunRecord referencing the prior run_id as parent.
package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
	_ "modernc.org/sqlite"
)

// Filter narrows a Search call.
type Filter struct {
	QuerySubstring string
	Worker         domain.WorkerID
	MinConfidence  float64
}

// Stats is memory.Store.Stats' return shape.
type Stats struct {
	TotalRuns            int
	PerWorkerCounts      map[domain.WorkerID]int
	ConfidenceHistogram  map[string]int // bucket label (e.g. "70-80%") -> count
}

// Store is the Collaboration Memory contract.
type Store interface {
	Append(ctx context.Context, record domain.RunRecord) error
	Recent(ctx context.Context, n int) ([]domain.RunRecord, error)
	Search(ctx context.Context, filter Filter) ([]domain.RunRecord, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// SQLiteStore is the default Store implementation: a single SQLite file,
// one writer, WAL mode, each row holding the RunRecord as JSON. This
// trades a literal JSON-lines log on disk for a queryable single file —
// every row's record_json column is still the exact JSON a JSONL exporter
// would emit, so `SELECT record_json FROM runs ORDER BY rowid` reproduces
// the log losslessly if ever needed.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.Mutex // single-writer discipline
	path string
}

// NewSQLiteStore opens (or creates) the collaboration memory database at
// path, in WAL mode with a single writer connection.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("memory: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=FULL", // fsync durability for the append-only guarantee
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("memory: %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS runs (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			query_text TEXT NOT NULL,
			task_kind TEXT NOT NULL,
			confidence REAL NOT NULL,
			started_at TIMESTAMP NOT NULL,
			record_json TEXT NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("memory: create schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)"); err != nil {
		return fmt.Errorf("memory: create index: %w", err)
	}
	return nil
}

// Append inserts record as a new row. It never updates an existing
// run_id — a second Append for the same run_id is a programming error and
// returns the underlying UNIQUE constraint violation.
func (s *SQLiteStore) Append(ctx context.Context, record domain.RunRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("memory: marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, query_text, task_kind, confidence, started_at, record_json) VALUES (?, ?, ?, ?, ?, ?)`,
		record.RunID, record.Query.Text, string(record.TaskKind), record.Reflection.Confidence, record.StartedAt, string(data),
	)
	if err != nil {
		return fmt.Errorf("memory: append: %w", err)
	}
	return nil
}

// Recent returns the n most recently appended records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]domain.RunRecord, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT record_json FROM runs ORDER BY rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("memory: recent: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Search returns records matching filter, ranked by recency.
func (s *SQLiteStore) Search(ctx context.Context, filter Filter) ([]domain.RunRecord, error) {
	query := `SELECT record_json FROM runs WHERE confidence >= ?`
	args := []any{filter.MinConfidence}
	if filter.QuerySubstring != "" {
		query += ` AND query_text LIKE ?`
		args = append(args, "%"+filter.QuerySubstring+"%")
	}
	query += ` ORDER BY rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("memory: search: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if filter.Worker == "" {
		return records, nil
	}

	filtered := records[:0]
	for _, r := range records {
		for _, wr := range r.WorkerResults {
			if wr.WorkerID == filter.Worker {
				filtered = append(filtered, r)
				break
			}
		}
	}
	return filtered, nil
}

// Stats summarizes the whole log.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record_json FROM runs`)
	if err != nil {
		return Stats{}, fmt.Errorf("memory: stats: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		PerWorkerCounts:     make(map[domain.WorkerID]int),
		ConfidenceHistogram: make(map[string]int),
	}
	for _, r := range records {
		stats.TotalRuns++
		for _, wr := range r.WorkerResults {
			stats.PerWorkerCounts[wr.WorkerID]++
		}
		stats.ConfidenceHistogram[confidenceBucket(r.Reflection.Confidence)]++
	}
	return stats, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]domain.RunRecord, error) {
	var out []domain.RunRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("memory: scan: %w", err)
		}
		var record domain.RunRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("memory: unmarshal record: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memory: iterate: %w", err)
	}
	return out, nil
}

func confidenceBucket(c float64) string {
	lo := int(c*10) * 10
	hi := lo + 10
	return fmt.Sprintf("%d-%d%%", lo, hi)
}
