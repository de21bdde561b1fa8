package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/codetrail/internal/exec"
)

//go:embed schema.sql
var schemaSQL string

// Accepted start-time layouts. The executor emits ISO-8601; with and
// without a zone offset both occur in the wild.
var startTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// Store provides durable storage for debug traces.
type Store struct {
	db *sql.DB
}

// Open creates or opens the trace database at the given path, applying
// the same pragmas the other stores use (WAL, NORMAL sync, busy timeout,
// foreign keys). Idempotent.
func Open(path string) (*Store, error) {
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
func (s *Store) DB() *sql.DB {
	return s.db
}

// RegisterSession registers one submission's trace payload atomically and
// returns a lookup reference for the call chosen by the strategy.
//
// For each function the caller-supplied identifier is stripped and the
// row is inserted under a fresh opaque hash; calls are rewritten through
// the resulting old-to-new id mapping and their start times parsed into
// the store's temporal representation. All rows are written in ONE
// transaction - a failure anywhere rolls back the whole session.
func (s *Store) RegisterSession(ctx context.Context, payload *exec.TracePayload, strategy RefStrategy) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin trace session: %w", err)
	}
	defer tx.Rollback()

	functionIDs := make(map[int]int64, len(payload.Functions))
	for _, fn := range payload.Functions {
		hash := newFunctionHash()
		data, err := marshalData(fn.Data)
		if err != nil {
			return "", fmt.Errorf("marshal function data: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO functions (hash, name, data) VALUES (?, ?, ?)
		`, hash, fn.Name, data)
		if err != nil {
			return "", fmt.Errorf("insert function: %w", err)
		}
		newID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("function id: %w", err)
		}
		functionIDs[fn.ID] = newID
	}

	callIDs := make([]int64, 0, len(payload.Calls))
	for _, call := range payload.Calls {
		functionID, ok := functionIDs[call.FunctionID]
		if !ok {
			return "", fmt.Errorf("call references unknown function id %d", call.FunctionID)
		}
		startTime, err := parseStartTime(call.StartTime)
		if err != nil {
			return "", fmt.Errorf("parse start time: %w", err)
		}
		data, err := marshalData(call.Data)
		if err != nil {
			return "", fmt.Errorf("marshal call data: %w", err)
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO calls (function_id, start_time, data) VALUES (?, ?, ?)
		`, functionID, startTime.UTC().Format(time.RFC3339Nano), data)
		if err != nil {
			return "", fmt.Errorf("insert call: %w", err)
		}
		callID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("call id: %w", err)
		}
		callIDs = append(callIDs, callID)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit trace session: %w", err)
	}

	refID, ok := strategy.Select(callIDs)
	if !ok {
		return "", nil
	}

	slog.Debug("trace session registered",
		"functions", len(payload.Functions),
		"calls", len(callIDs),
		"ref_call", refID,
	)
	return fmt.Sprintf("/trace/call/%d", refID), nil
}

// newFunctionHash generates the opaque hash a function is stored under.
func newFunctionHash() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

func parseStartTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range startTimeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func marshalData(data map[string]any) (string, error) {
	if data == nil {
		return "{}", nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
