// Package postgres provides a Postgres-backed implementation of the drift
// report repository port using a pgx connection pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
)

const defaultListLimit = 50

const schemaSQL = `
CREATE TABLE IF NOT EXISTS drift_reports (
	id TEXT PRIMARY KEY,
	message TEXT NOT NULL,
	intent_type TEXT NOT NULL,
	baseline TEXT NOT NULL DEFAULT '',
	entries JSONB NOT NULL DEFAULT '[]'::jsonb,
	drifted BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_drift_reports_created_at ON drift_reports (created_at DESC);
`

// Adapter implements ports.DriftRepository for Postgres.
type Adapter struct {
	db *pgxpool.Pool
}

var _ ports.DriftRepository = (*Adapter)(nil)

// NewAdapter connects to dsn and runs the schema migration.
func NewAdapter(ctx context.Context, dsn string) (*Adapter, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	a := &Adapter{db: db}
	if err := a.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migration failed: %w", err)
	}
	return a, nil
}

// NewAdapterFromPool wraps an existing pool without migrating.
func NewAdapterFromPool(db *pgxpool.Pool) *Adapter {
	return &Adapter{db: db}
}

func (a *Adapter) Close() {
	a.db.Close()
}

func (a *Adapter) migrate(ctx context.Context) error {
	_, err := a.db.Exec(ctx, schemaSQL)
	return err
}

func (a *Adapter) Save(ctx context.Context, r domain.DriftReport) error {
	entries := r.Entries
	if entries == nil {
		entries = []domain.DriftEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("postgres: encode entries: %w", err)
	}

	_, err = a.db.Exec(ctx, `
		INSERT INTO drift_reports (id, message, intent_type, baseline, entries, drifted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			message = EXCLUDED.message,
			intent_type = EXCLUDED.intent_type,
			baseline = EXCLUDED.baseline,
			entries = EXCLUDED.entries,
			drifted = EXCLUDED.drifted
	`, r.ID, r.Message, string(r.IntentType), r.Baseline, raw, r.Drifted(), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: save drift report: %w", err)
	}
	return nil
}

func (a *Adapter) GetByID(ctx context.Context, id string) (domain.DriftReport, error) {
	row := a.db.QueryRow(ctx, `
		SELECT id, message, intent_type, baseline, entries, created_at
		FROM drift_reports WHERE id = $1
	`, id)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.DriftReport{}, domain.ErrNotFound
		}
		return domain.DriftReport{}, fmt.Errorf("postgres: load drift report: %w", err)
	}
	return r, nil
}

// List returns the newest reports first. A non-positive limit selects the
// default page size.
func (a *Adapter) List(ctx context.Context, limit int) ([]domain.DriftReport, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := a.db.Query(ctx, `
		SELECT id, message, intent_type, baseline, entries, created_at
		FROM drift_reports
		ORDER BY created_at DESC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list drift reports: %w", err)
	}
	defer rows.Close()

	out := []domain.DriftReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan drift report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate drift reports: %w", err)
	}
	return out, nil
}

func scanReport(row pgx.Row) (domain.DriftReport, error) {
	var r domain.DriftReport
	var intentType string
	var entries []byte
	if err := row.Scan(&r.ID, &r.Message, &intentType, &r.Baseline, &entries, &r.CreatedAt); err != nil {
		return domain.DriftReport{}, err
	}
	r.IntentType = domain.IntentType(intentType)
	r.CreatedAt = r.CreatedAt.UTC()
	r.Entries = []domain.DriftEntry{}
	if err := json.Unmarshal(entries, &r.Entries); err != nil {
		return domain.DriftReport{}, fmt.Errorf("decode entries: %w", err)
	}
	return r, nil
}
