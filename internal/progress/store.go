package progress

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - pre-migration
// 1 - initial schema (learners, page_progress)
const currentSchemaVersion = 1

// ErrNotFound is returned when a learner does not exist.
var ErrNotFound = errors.New("learner not found")

// Learner is one tracked account.
type Learner struct {
	ID            string
	Email         string
	DeveloperMode bool
	PageSlug      string // current page slug; empty means first page
}

// Record is a learner's progress: current page plus, for every page the
// learner has reached, the name of the last completed step.
type Record struct {
	CurrentPageSlug string
	PagesProgress   map[string]string // page slug -> step name
}

// Store provides durable storage for learner progress.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateLearner inserts a learner row. Idempotent: an existing row with
// the same id is left untouched (ON CONFLICT DO NOTHING).
func (s *Store) CreateLearner(ctx context.Context, l Learner) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learners (id, email, developer_mode, page_slug)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, l.ID, l.Email, boolToInt(l.DeveloperMode), l.PageSlug)
	if err != nil {
		return fmt.Errorf("create learner: %w", err)
	}
	return nil
}

// Learner returns the learner row for the given id.
// Returns ErrNotFound if no such learner exists.
func (s *Store) Learner(ctx context.Context, id string) (Learner, error) {
	var l Learner
	var devMode int
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, developer_mode, page_slug
		FROM learners
		WHERE id = ?
	`, id).Scan(&l.ID, &l.Email, &devMode, &l.PageSlug)
	if errors.Is(err, sql.ErrNoRows) {
		return Learner{}, ErrNotFound
	}
	if err != nil {
		return Learner{}, fmt.Errorf("read learner: %w", err)
	}
	l.DeveloperMode = devMode != 0
	return l, nil
}

// Progress returns a learner's full progress record: current page slug
// and the last completed step name for every page the learner has reached.
// Returns ErrNotFound if the learner does not exist.
func (s *Store) Progress(ctx context.Context, learnerID string) (Record, error) {
	l, err := s.Learner(ctx, learnerID)
	if err != nil {
		return Record{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT page_slug, step_name
		FROM page_progress
		WHERE learner_id = ?
		ORDER BY page_slug ASC
	`, learnerID)
	if err != nil {
		return Record{}, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	rec := Record{
		CurrentPageSlug: l.PageSlug,
		PagesProgress:   make(map[string]string),
	}
	for rows.Next() {
		var slug, step string
		if err := rows.Scan(&slug, &step); err != nil {
			return Record{}, fmt.Errorf("scan progress: %w", err)
		}
		rec.PagesProgress[slug] = step
	}
	if err := rows.Err(); err != nil {
		return Record{}, fmt.Errorf("iterate progress: %w", err)
	}
	return rec, nil
}

// SetStep records the last completed step for a (learner, page) pair.
// Upserts: the previous step name is overwritten unconditionally, so with
// concurrent submissions the last write wins.
func (s *Store) SetStep(ctx context.Context, learnerID, pageSlug, stepName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO page_progress (learner_id, page_slug, step_name)
		VALUES (?, ?, ?)
		ON CONFLICT(learner_id, page_slug) DO UPDATE SET step_name = excluded.step_name
	`, learnerID, pageSlug, stepName)
	if err != nil {
		return fmt.Errorf("set step: %w", err)
	}
	return nil
}

// SetCurrentPage records the learner's current page slug.
func (s *Store) SetCurrentPage(ctx context.Context, learnerID, pageSlug string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE learners SET page_slug = ? WHERE id = ?
	`, pageSlug, learnerID)
	if err != nil {
		return fmt.Errorf("set current page: %w", err)
	}
	return requireRow(res)
}

// SetDeveloperMode records the learner's developer-mode flag.
func (s *Store) SetDeveloperMode(ctx context.Context, learnerID string, value bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE learners SET developer_mode = ? WHERE id = ?
	`, boolToInt(value), learnerID)
	if err != nil {
		return fmt.Errorf("set developer mode: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
