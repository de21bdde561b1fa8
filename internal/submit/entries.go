package submit

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one submission audit record.
type Entry struct {
	ID        int64
	Input     string
	Source    string
	PageSlug  string
	StepName  string
	LearnerID string
	Output    string
	HasOutput bool // false until the execution result has been recorded
}

// EntryRecorder persists submission audit entries. Implemented by
// *EntryStore; the pipeline treats a nil recorder as "persistence
// disabled" and skips both writes.
type EntryRecorder interface {
	Create(ctx context.Context, e Entry) (int64, error)
	SetOutput(ctx context.Context, id int64, output string) error
}

// EntryStore is the SQLite-backed audit log.
type EntryStore struct {
	db *sql.DB
}

// OpenEntryStore creates or opens the audit database at the given path.
// Applies the store pragmas and schema; idempotent.
func OpenEntryStore(path string) (*EntryStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &EntryStore{db: db}, nil
}

// Close closes the database connection.
func (s *EntryStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts an audit entry and returns its id.
func (s *EntryStore) Create(ctx context.Context, e Entry) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (input, source, page_slug, step_name, learner_id)
		VALUES (?, ?, ?, ?, ?)
	`, e.Input, e.Source, e.PageSlug, e.StepName, e.LearnerID)
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry id: %w", err)
	}
	return id, nil
}

// SetOutput records the execution output on an existing entry.
func (s *EntryStore) SetOutput(ctx context.Context, id int64, output string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE entries SET output = ? WHERE id = ?
	`, output, id)
	if err != nil {
		return fmt.Errorf("set entry output: %w", err)
	}
	return nil
}

// Entry reads one audit entry. Used by tests and operator tooling.
func (s *EntryStore) Entry(ctx context.Context, id int64) (Entry, error) {
	var e Entry
	var output sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, input, source, page_slug, step_name, learner_id, output
		FROM entries
		WHERE id = ?
	`, id).Scan(&e.ID, &e.Input, &e.Source, &e.PageSlug, &e.StepName, &e.LearnerID, &output)
	if err != nil {
		return Entry{}, fmt.Errorf("read entry: %w", err)
	}
	e.Output = output.String
	e.HasOutput = output.Valid
	return e, nil
}
