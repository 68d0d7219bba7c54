// Package sqlite provides a SQLite-backed implementation of the drift report
// repository port.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/ports"
)

const defaultListLimit = 50

// createdAtLayout is fixed width so created_at sorts chronologically as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Adapter implements ports.DriftRepository for SQLite
type Adapter struct {
	db *sql.DB
}

var _ ports.DriftRepository = (*Adapter)(nil)

// NewAdapter creates a connection and runs the schema migration
func NewAdapter(storagePath string) (*Adapter, error) {
	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	// A second pooled connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite: ping db: %w", err)
	}

	adapter := &Adapter{db: db}

	// Auto-migrate on startup for local dev
	if err := adapter.migrate(); err != nil {
		return nil, fmt.Errorf("sqlite: migration failed: %w", err)
	}

	return adapter, nil
}

// Close ensures the DB connection is closed gracefully
func (a *Adapter) Close() error {
	return a.db.Close()
}

func (a *Adapter) Save(ctx context.Context, r domain.DriftReport) error {
	// 1. Start Transaction
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 2. Upsert report header
	queryReport := `
		INSERT INTO drift_reports (id, message, intent_type, baseline, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			message=excluded.message,
			intent_type=excluded.intent_type,
			baseline=excluded.baseline;
	`
	if _, err := tx.ExecContext(ctx, queryReport,
		r.ID, r.Message, string(r.IntentType), r.Baseline, r.CreatedAt.UTC().Format(createdAtLayout),
	); err != nil {
		return fmt.Errorf("sqlite: save drift report: %w", err)
	}

	// 3. Replace entries
	if _, err := tx.ExecContext(ctx, "DELETE FROM drift_entries WHERE report_id = ?", r.ID); err != nil {
		return fmt.Errorf("sqlite: clear drift entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO drift_entries (report_id, position, backend, valid, errors, differences, output)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range r.Entries {
		errs, diffs, output, err := encodeEntry(e)
		if err != nil {
			return fmt.Errorf("sqlite: encode entry %s: %w", e.Backend, err)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, i, e.Backend, e.Valid, errs, diffs, output); err != nil {
			return fmt.Errorf("sqlite: save entry %s: %w", e.Backend, err)
		}
	}

	// 4. Commit Transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (a *Adapter) GetByID(ctx context.Context, id string) (domain.DriftReport, error) {
	row := a.db.QueryRowContext(ctx,
		"SELECT id, message, intent_type, baseline, created_at FROM drift_reports WHERE id = ?", id)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DriftReport{}, domain.ErrNotFound
		}
		return domain.DriftReport{}, fmt.Errorf("sqlite: load drift report: %w", err)
	}
	if err := a.loadEntries(ctx, &r); err != nil {
		return domain.DriftReport{}, err
	}
	return r, nil
}

// List returns the newest reports first. A non-positive limit selects the
// default page size.
func (a *Adapter) List(ctx context.Context, limit int) ([]domain.DriftReport, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, message, intent_type, baseline, created_at
		FROM drift_reports
		ORDER BY created_at DESC, id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list drift reports: %w", err)
	}
	defer rows.Close()

	out := []domain.DriftReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan drift report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate drift reports: %w", err)
	}
	rows.Close()

	for i := range out {
		if err := a.loadEntries(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (domain.DriftReport, error) {
	var r domain.DriftReport
	var intentType, createdAt string
	if err := s.Scan(&r.ID, &r.Message, &intentType, &r.Baseline, &createdAt); err != nil {
		return domain.DriftReport{}, err
	}
	r.IntentType = domain.IntentType(intentType)
	ts, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return domain.DriftReport{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	r.CreatedAt = ts
	r.Entries = []domain.DriftEntry{}
	return r, nil
}

func (a *Adapter) loadEntries(ctx context.Context, r *domain.DriftReport) error {
	rows, err := a.db.QueryContext(ctx, `
		SELECT backend, valid, errors, differences, output
		FROM drift_entries
		WHERE report_id = ?
		ORDER BY position ASC
	`, r.ID)
	if err != nil {
		return fmt.Errorf("sqlite: load drift entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.DriftEntry
		var errs, diffs string
		var output sql.NullString
		if err := rows.Scan(&e.Backend, &e.Valid, &errs, &diffs, &output); err != nil {
			return fmt.Errorf("sqlite: scan drift entry: %w", err)
		}
		if err := decodeEntry(&e, errs, diffs, output); err != nil {
			return fmt.Errorf("sqlite: decode drift entry %s: %w", e.Backend, err)
		}
		r.Entries = append(r.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterate drift entries: %w", err)
	}
	return nil
}

func encodeEntry(e domain.DriftEntry) (errs, diffs string, output sql.NullString, err error) {
	if e.Errors == nil {
		e.Errors = []domain.Issue{}
	}
	if e.Differences == nil {
		e.Differences = []domain.Difference{}
	}
	b, err := json.Marshal(e.Errors)
	if err != nil {
		return "", "", output, err
	}
	errs = string(b)
	if b, err = json.Marshal(e.Differences); err != nil {
		return "", "", output, err
	}
	diffs = string(b)
	if e.Output != nil {
		if b, err = json.Marshal(e.Output); err != nil {
			return "", "", output, err
		}
		output = sql.NullString{String: string(b), Valid: true}
	}
	return errs, diffs, output, nil
}

func decodeEntry(e *domain.DriftEntry, errs, diffs string, output sql.NullString) error {
	if err := json.Unmarshal([]byte(errs), &e.Errors); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(diffs), &e.Differences); err != nil {
		return err
	}
	if output.Valid {
		if err := json.Unmarshal([]byte(output.String), &e.Output); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS drift_reports (
		id TEXT PRIMARY KEY,
		message TEXT NOT NULL,
		intent_type TEXT NOT NULL,
		baseline TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS drift_entries (
		report_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		backend TEXT NOT NULL,
		valid BOOLEAN NOT NULL,
		errors TEXT NOT NULL,
		differences TEXT NOT NULL,
		output TEXT,
		PRIMARY KEY (report_id, position),
		FOREIGN KEY(report_id) REFERENCES drift_reports(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_drift_reports_created_at ON drift_reports(created_at);
	`
	_, err := a.db.Exec(query)
	return err
}
