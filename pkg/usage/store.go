package usage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_records (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    model TEXT NOT NULL,
    target_model TEXT NOT NULL,
    input_tokens INTEGER NOT NULL,
    output_tokens INTEGER NOT NULL,
    stop_reason TEXT,
    stream BOOLEAN NOT NULL,
    duration_ms INTEGER NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_created_at ON usage_records(created_at);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_records(model);
`

// Record is one ledger entry.
type Record struct {
	ID           string
	RequestID    string
	Model        string
	TargetModel  string
	InputTokens  int
	OutputTokens int
	StopReason   string
	Stream       bool
	DurationMS   int64
	CreatedAt    time.Time
}

// Store is the SQLite-backed ledger. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens (or creates) the ledger database at path and initializes
// its schema. WAL mode keeps reads from blocking the async writer.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening usage database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring usage database: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing usage schema: %w", err)
	}

	logger.Info("usage ledger opened", slog.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Insert writes one record.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_records
		 (id, request_id, model, target_model, input_tokens, output_tokens,
		  stop_reason, stream, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RequestID, rec.Model, rec.TargetModel,
		rec.InputTokens, rec.OutputTokens, rec.StopReason, rec.Stream,
		rec.DurationMS, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting usage record: %w", err)
	}
	return nil
}

// PruneOlderThan deletes records created before cutoff and reports how many
// were removed.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning usage records: %w", err)
	}
	return res.RowsAffected()
}

// Totals sums input and output tokens recorded since the given time.
func (s *Store) Totals(ctx context.Context, since time.Time) (inputTokens, outputTokens int64, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
		 FROM usage_records WHERE created_at >= ?`, since)
	if err := row.Scan(&inputTokens, &outputTokens); err != nil {
		return 0, 0, fmt.Errorf("summing usage records: %w", err)
	}
	return inputTokens, outputTokens, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
