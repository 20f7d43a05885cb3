package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/google/uuid"

	"github.com/risknavigator/document-classifier/internal/core/domain"
)

// ResultRepository is an append-only audit log of classification outcomes.
// It is optional: deployments without a DSN run with no recorder at all.
type ResultRepository struct {
	db    *sql.DB
	model string
}

func NewResultRepository(db *sql.DB, model string) *ResultRepository {
	return &ResultRepository{db: db, model: model}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ResultRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent instance startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS classification_results (
	id TEXT PRIMARY KEY,
	document_key TEXT NOT NULL,
	filename TEXT NOT NULL,
	category TEXT,
	status TEXT NOT NULL,
	reason TEXT,
	detail TEXT,
	model TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_classification_results_key ON classification_results(document_key);
CREATE INDEX IF NOT EXISTS idx_classification_results_created_at ON classification_results(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ResultRepository) Record(ctx context.Context, result domain.DocumentResult) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO classification_results (
	id, document_key, filename, category, status, reason, detail, model, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		uuid.NewString(), result.Key, result.Filename, string(result.Category), string(result.Status),
		string(result.Reason), result.Detail, r.model, result.ClassifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert classification result: %w", err)
	}
	return nil
}
