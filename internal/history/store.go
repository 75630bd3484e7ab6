package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"castcut/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// FileName is the database file created inside the work directory.
const FileName = "history.db"

// timeLayout is fixed width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the history database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	dbPath := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: func() time.Time { return time.Now().UTC() }}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset history)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Start records a new running run.
func (s *Store) Start(ctx context.Context, id string, kind Kind, output string, sources int) (*Run, error) {
	if id == "" {
		return nil, errors.New("run id required")
	}
	timestamp := s.now().Format(timeLayout)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, kind, output, sources, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, kind, output, sources, StatusRunning, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.Get(ctx, id)
}

// SetStage records the stage a running run has reached.
func (s *Store) SetStage(ctx context.Context, id, stage string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET stage = ?, updated_at = ? WHERE id = ? AND status = ?`,
		nullableString(stage), s.now().Format(timeLayout), id, StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	return nil
}

// Complete marks a run as completed.
func (s *Store) Complete(ctx context.Context, id string, out Outcome) error {
	timestamp := s.now().Format(timeLayout)
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, segments = ?, cuts = ?, program_ms = ?, updated_at = ?, finished_at = ?
         WHERE id = ?`,
		StatusCompleted, out.Segments, out.Cuts, out.Program.Milliseconds(), timestamp, timestamp, id,
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// Fail marks a run as failed with the classified error.
func (s *Store) Fail(ctx context.Context, id string, runErr error) error {
	timestamp := s.now().Format(timeLayout)
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, failure_kind = ?, error_message = ?, updated_at = ?, finished_at = ?
         WHERE id = ?`,
		StatusFailed, nullableString(services.FailureKind(runErr)), nullableString(message), timestamp, timestamp, id,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

// Get fetches a run by identifier. A missing run returns nil, nil.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first, at most limit (all when limit <= 0),
// optionally filtered by status.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ReclaimStale marks runs still "running" after cutoff as failed. A run
// killed mid-flight never reaches Complete or Fail.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	timestamp := s.now().Format(timeLayout)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs
         SET status = ?, failure_kind = 'interrupted', error_message = 'run did not finish',
             updated_at = ?, finished_at = ?
         WHERE status = ? AND updated_at < ?`,
		StatusFailed, timestamp, timestamp, StatusRunning, cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale runs: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes finished runs created before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM runs WHERE status != ? AND created_at < ?`,
		StatusRunning, cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const runColumns = "id, kind, output, sources, status, stage, segments, cuts, program_ms, failure_kind, error_message, created_at, updated_at, finished_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id           string
		kind         string
		output       string
		sources      int
		status       string
		stage        sql.NullString
		segments     int
		cuts         int
		programMS    int64
		failureKind  sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&id, &kind, &output, &sources, &status, &stage, &segments, &cuts, &programMS,
		&failureKind, &errorMessage, &createdRaw, &updatedRaw, &finishedRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:           id,
		Kind:         Kind(kind),
		Output:       output,
		Sources:      sources,
		Status:       Status(status),
		Stage:        stage.String,
		Segments:     segments,
		Cuts:         cuts,
		Program:      time.Duration(programMS) * time.Millisecond,
		FailureKind:  failureKind.String,
		ErrorMessage: errorMessage.String,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		run.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		run.UpdatedAt = updated
	}
	if finishedRaw.Valid {
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
