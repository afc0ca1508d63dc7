// Package history records completed dumps in a SQLite database so runs can be
// listed and compared later.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"

	"github.com/harrison/textdump/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed-width so stored timestamps sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrRunNotFound is returned by GetRun for an unknown run ID
var ErrRunNotFound = errors.New("run not found")

// Failure is a file that could not be read during a recorded run
type Failure struct {
	Path    string
	Message string
}

// Run is one recorded dump
type Run struct {
	ID         string
	Root       string
	OutputPath string
	StartedAt  time.Time
	Duration   time.Duration
	Visited    int
	Included   int
	Skipped    int
	Failed     int
	Bytes      int
	Digest     string
	Failures   []Failure // Only populated by GetRun
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.NewString()
}

// Digest returns the hex BLAKE2b-256 digest of a dump
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RunFromResult converts a collector result into a history record
func RunFromResult(result models.DumpResult) Run {
	run := Run{
		ID:         result.RunID,
		Root:       result.Root,
		OutputPath: result.OutputPath,
		StartedAt:  result.StartedAt,
		Duration:   result.Duration,
		Visited:    result.Visited,
		Included:   result.Included,
		Skipped:    result.Skipped,
		Failed:     result.Failed(),
		Bytes:      result.Bytes,
		Digest:     result.Digest,
	}
	for _, f := range result.Failures {
		run.Failures = append(run.Failures, Failure{Path: f.Path, Message: f.Err.Error()})
	}
	return run
}

// Store manages the SQLite run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath.
// ":memory:" opens a private in-memory database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	}

	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, schemaSQL, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}

		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database location
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun stores a run and its failures in one transaction.
// A run without an ID gets a new one, which is written back into run.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, root, output_path, started_at, duration_ms, visited, included, skipped, failed, bytes, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Root,
		run.OutputPath,
		run.StartedAt.UTC().Format(timeLayout),
		run.Duration.Milliseconds(),
		run.Visited,
		run.Included,
		run.Skipped,
		run.Failed,
		run.Bytes,
		run.Digest,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, f := range run.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_failures (run_id, path, message) VALUES (?, ?, ?)`,
			run.ID, f.Path, f.Message,
		); err != nil {
			return fmt.Errorf("insert run failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `id, root, output_path, started_at, duration_ms, visited, included, skipped, failed, bytes, digest`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		durationMs int64
	)
	err := row.Scan(
		&run.ID,
		&run.Root,
		&run.OutputPath,
		&startedAt,
		&durationMs,
		&run.Visited,
		&run.Included,
		&run.Skipped,
		&run.Failed,
		&run.Bytes,
		&run.Digest,
	)
	if err != nil {
		return nil, err
	}

	run.StartedAt, err = time.Parse(timeLayout, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun loads a single run with its failures. id may be a unique prefix.
// The prefix is compared literally, so '%' and '_' carry no pattern meaning.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, errors.New("run id must not be empty")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE substr(id, 1, length(?)) = ? ORDER BY started_at DESC LIMIT 2`, id, id)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 2:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
	run := matches[0]

	failRows, err := s.db.QueryContext(ctx,
		`SELECT path, message FROM run_failures WHERE run_id = ? ORDER BY rowid`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("query run failures: %w", err)
	}
	defer failRows.Close()

	for failRows.Next() {
		var f Failure
		if err := failRows.Scan(&f.Path, &f.Message); err != nil {
			return nil, fmt.Errorf("scan run failure: %w", err)
		}
		run.Failures = append(run.Failures, f)
	}
	if err := failRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run failures: %w", err)
	}

	return run, nil
}

// PruneRuns deletes runs started before olderThan and returns how many were removed
func (s *Store) PruneRuns(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE started_at < ?`, olderThan.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("delete old runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return deleted, nil
}
