package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hseg-analytics/riskmeter/internal/monitoring"
	"github.com/hseg-analytics/riskmeter/internal/types"
)

// SQLiteStore is the durable ResultStore. Results are immutable rows keyed
// by result_id; the payload travels as a JSON document so artifact-driven
// field additions never need a migration.
type SQLiteStore struct {
	db     *sql.DB
	logger *monitoring.Logger
}

// NewSQLiteStore opens (or creates) the assessment database under dataDir
// with WAL journaling and a busy timeout suited to concurrent scoring.
func NewSQLiteStore(dataDir string, logger *monitoring.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "riskmeter.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Assessment database initialized", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS assessments (
			result_id TEXT PRIMARY KEY,
			response_id TEXT NOT NULL,
			org_id TEXT NOT NULL,
			composite_score INTEGER NOT NULL,
			risk_tier TEXT NOT NULL,
			payload TEXT NOT NULL,
			scored_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_assessments_org ON assessments(org_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_org_response ON assessments(org_id, response_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assessments_scored_at ON assessments(scored_at DESC)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// Append inserts the assessment. A duplicate result_id is rejected by the
// primary key; results are never updated in place.
func (s *SQLiteStore) Append(ctx context.Context, a types.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode assessment: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (result_id, response_id, org_id, composite_score, risk_tier, payload, scored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.Individual.ResultID, a.Individual.ResponseID, a.Individual.OrgID,
		a.Individual.CompositeScore, string(a.Individual.Tier), string(payload), a.Individual.ScoredAt)
	if err != nil {
		return fmt.Errorf("failed to store assessment: %w", err)
	}
	return nil
}

// ListByOrg loads the organization's full result set. Rows decode into
// fresh values, so the returned slice is naturally isolated.
func (s *SQLiteStore) ListByOrg(ctx context.Context, orgID string) ([]types.Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM assessments WHERE org_id = ? ORDER BY response_id ASC
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var out []types.Assessment
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		var a types.Assessment
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, fmt.Errorf("failed to decode assessment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CountByOrg counts stored assessments without decoding payloads.
func (s *SQLiteStore) CountByOrg(ctx context.Context, orgID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments WHERE org_id = ?`, orgID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count assessments: %w", err)
	}
	return n, nil
}

// DeleteByOrg removes the organization's entire result set.
func (s *SQLiteStore) DeleteByOrg(ctx context.Context, orgID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM assessments WHERE org_id = ?`, orgID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete assessments: %w", err)
	}
	return result.RowsAffected()
}

// PurgeOlderThan removes assessments scored before the cutoff.
func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM assessments WHERE scored_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge assessments: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the underlying connection pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
