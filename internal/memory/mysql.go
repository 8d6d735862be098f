package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// MySQLStore is the multi-writer Collaboration Memory backend: production
// deployments with more than one orchestration process share one database
// instead of one SQLite file. It uses pooled connections and the same
// append-only runs table shape as SQLiteStore, with a JSON payload column;
// like SQLiteStore, Append never updates an existing run_id.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens dsn (e.g. "user:pass@tcp(host:3306)/hawkai") and
// creates the runs table if absent.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("memory: open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS runs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id VARCHAR(255) NOT NULL UNIQUE,
			query_text TEXT NOT NULL,
			task_kind VARCHAR(64) NOT NULL,
			confidence DOUBLE NOT NULL,
			started_at TIMESTAMP NOT NULL,
			record_json JSON NOT NULL,
			INDEX idx_started_at (started_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("memory: create schema: %w", err)
	}
	return nil
}

// Append inserts record as a new row. A second Append for the same run_id
// returns the underlying UNIQUE constraint violation.
func (s *MySQLStore) Append(ctx context.Context, record domain.RunRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("memory: marshal record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, query_text, task_kind, confidence, started_at, record_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.RunID, record.Query.Text, string(record.TaskKind), record.Reflection.Confidence, record.StartedAt, string(data),
	)
	if err != nil {
		return fmt.Errorf("memory: append: %w", err)
	}
	return nil
}

func (s *MySQLStore) Recent(ctx context.Context, n int) ([]domain.RunRecord, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT record_json FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("memory: recent: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *MySQLStore) Search(ctx context.Context, filter Filter) ([]domain.RunRecord, error) {
	query := `SELECT record_json FROM runs WHERE confidence >= ?`
	args := []any{filter.MinConfidence}
	if filter.QuerySubstring != "" {
		query += ` AND query_text LIKE ?`
		args = append(args, "%"+filter.QuerySubstring+"%")
	}
	query += ` ORDER BY id DESC`

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

func (s *MySQLStore) Stats(ctx context.Context) (Stats, error) {
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

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
