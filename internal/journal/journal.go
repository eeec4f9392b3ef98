// Package journal keeps a local SQLite audit log of upsert outcomes: one row
// per processed record per run. The repository stays the authority on record
// existence; the journal only answers "what did run X do" after the fact,
// for operators chasing a failed batch.
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Journal is a SQLite-backed outcome log.
type Journal struct {
	db *sql.DB
}

// Open creates or opens the journal database at path, applying pragmas and
// schema. Idempotent.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// Single writer, matching the sequential batch driver.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Entry is one journal row.
type Entry struct {
	RunID      string
	Kind       string
	NaturalKey string
	Outcome    string
	Stage      string
	RecordID   string
	Detail     string
	NotedAt    time.Time
}

// Record inserts an outcome row. Re-recording the same (run, kind, key) is a
// silent no-op.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	notedAt := e.NotedAt
	if notedAt.IsZero() {
		notedAt = time.Now()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO outcomes
		(run_id, kind, natural_key, outcome, stage, record_id, detail, noted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, kind, natural_key) DO NOTHING
	`,
		e.RunID,
		e.Kind,
		e.NaturalKey,
		e.Outcome,
		e.Stage,
		e.RecordID,
		e.Detail,
		notedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, kind, natural_key, outcome, stage, record_id, detail, noted_at
		FROM outcomes
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var notedAt string
		if err := rows.Scan(&e.RunID, &e.Kind, &e.NaturalKey, &e.Outcome,
			&e.Stage, &e.RecordID, &e.Detail, &notedAt); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.NotedAt, _ = time.Parse(time.RFC3339, notedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}

// ByKey returns the history of one natural key, newest first.
func (j *Journal) ByKey(ctx context.Context, naturalKey string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, kind, natural_key, outcome, stage, record_id, detail, noted_at
		FROM outcomes
		WHERE natural_key = ?
		ORDER BY id DESC
	`, naturalKey)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var notedAt string
		if err := rows.Scan(&e.RunID, &e.Kind, &e.NaturalKey, &e.Outcome,
			&e.Stage, &e.RecordID, &e.Detail, &notedAt); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		e.NotedAt, _ = time.Parse(time.RFC3339, notedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return entries, nil
}
