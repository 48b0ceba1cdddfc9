// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records conversion runs in a local SQLite database so past
// conversions can be listed and exported.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/freeplane-helper/pkg/types"
)

const (
	appDir = "freeplane-helper"
	dbFile = "history.db"

	// DefaultLimit caps List when the caller passes a non-positive limit.
	DefaultLimit = 20
)

// DefaultPath returns <user config dir>/freeplane-helper/history.db.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, appDir, dbFile), nil
}

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the history database at path, creating its
// parent directory and schema when missing.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			format TEXT NOT NULL,
			number_sections INTEGER NOT NULL,
			outputs TEXT NOT NULL,
			status TEXT NOT NULL,
			failed_stage TEXT,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_source ON conversions(source)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts rec and returns its assigned ID.
func (s *Store) Record(ctx context.Context, rec types.ConversionRecord) (int64, error) {
	outputs := rec.Outputs
	if outputs == nil {
		outputs = []string{}
	}
	outJSON, err := json.Marshal(outputs)
	if err != nil {
		return 0, fmt.Errorf("encoding outputs: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions
			(source, format, number_sections, outputs, status, failed_stage, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Source, string(rec.Format), rec.NumberSections, string(outJSON),
		string(rec.Status), string(rec.FailedStage), rec.Error,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("recording conversion: %w", err)
	}
	return res.LastInsertId()
}

// List returns up to limit records, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]types.ConversionRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, format, number_sections, outputs, status,
			COALESCE(failed_stage, ''), COALESCE(error, ''), started_at, finished_at
		FROM conversions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []types.ConversionRecord
	for rows.Next() {
		var (
			r                 types.ConversionRecord
			format, status    string
			stage, outJSON    string
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Source, &format, &r.NumberSections, &outJSON,
			&status, &stage, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		r.Format = types.Format(format)
		r.Status = types.ConversionStatus(status)
		r.FailedStage = types.Stage(stage)
		if err := json.Unmarshal([]byte(outJSON), &r.Outputs); err != nil {
			return nil, fmt.Errorf("decoding outputs of record %d: %w", r.ID, err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing start time of record %d: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parsing finish time of record %d: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
