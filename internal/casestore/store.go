// Package casestore persists completed diagnosis cases to SQLite so
// past cases can be listed, inspected, and pruned from the CLI.
package casestore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"cropdoc/internal/config"
	"cropdoc/internal/diagnose"
	"cropdoc/internal/pipeline"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the
// schema changes; existing databases must then be pruned or deleted.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by a different
// version of the schema.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const lockRetryDelay = 100 * time.Millisecond

// Store manages case persistence backed by SQLite. Writes from
// concurrent processes are serialized through a file lock next to the
// database.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open initializes or connects to the case database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "cases.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:   db,
		path: dbPath,
		lock: flock.New(dbPath + ".lock"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
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
		return fmt.Errorf("%w: database has version %d, expected %d (run 'cropdoc cases prune --all' or delete the database)",
			ErrSchemaMismatch, version, schemaVersion)
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

// withWriteLock serializes cross-process writes through the file lock.
func (s *Store) withWriteLock(ctx context.Context, fn func() error) error {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire case lock: %w", err)
	}
	if !locked {
		return errors.New("acquire case lock: not acquired")
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

// Save persists a completed case. Implements pipeline.Sink.
func (s *Store) Save(ctx context.Context, record *pipeline.Record) error {
	candidates, err := json.Marshal(record.Response.Candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}
	plan, err := json.Marshal(record.Response.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	features, err := json.Marshal(record.Response.VisualFeatures)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	timings, err := json.Marshal(record.Trace.Timings)
	if err != nil {
		return fmt.Errorf("marshal timings: %w", err)
	}
	annotations, err := json.Marshal(record.Trace.Annotations)
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}

	return s.withWriteLock(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO cases (
                id, crop, growth_stage, symptoms, image_count, state,
                candidates_json, plan_json, features_json, timings_json,
                annotations_json, error, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.CaseID,
			string(record.Request.Crop),
			string(record.Request.GrowthStage),
			record.Request.Symptoms,
			len(record.Request.Images),
			string(record.Trace.State),
			string(candidates),
			string(plan),
			string(features),
			string(timings),
			string(annotations),
			record.Trace.Error,
			record.FinishedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert case: %w", err)
		}
		return nil
	})
}

// Case is a persisted diagnosis case as read back from the database.
type Case struct {
	ID          string
	Crop        diagnose.Crop
	GrowthStage diagnose.GrowthStage
	Symptoms    string
	ImageCount  int
	State       diagnose.State
	Candidates  []diagnose.Candidate
	Plan        diagnose.Plan
	Features    diagnose.VisionFeatures
	Timings     map[string]float64
	Annotations []string
	Error       string
	CreatedAt   time.Time
}

const caseColumns = `id, crop, growth_stage, symptoms, image_count, state,
    candidates_json, plan_json, features_json, timings_json,
    annotations_json, error, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*Case, error) {
	var (
		c           Case
		crop        string
		stage       string
		state       string
		candidates  string
		plan        string
		features    string
		timings     string
		annotations string
		createdAt   string
	)
	if err := row.Scan(&c.ID, &crop, &stage, &c.Symptoms, &c.ImageCount, &state,
		&candidates, &plan, &features, &timings, &annotations, &c.Error, &createdAt); err != nil {
		return nil, err
	}
	c.Crop = diagnose.Crop(crop)
	c.GrowthStage = diagnose.GrowthStage(stage)
	c.State = diagnose.State(state)
	if err := json.Unmarshal([]byte(candidates), &c.Candidates); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	if err := json.Unmarshal([]byte(plan), &c.Plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	if err := json.Unmarshal([]byte(features), &c.Features); err != nil {
		return nil, fmt.Errorf("unmarshal features: %w", err)
	}
	if err := json.Unmarshal([]byte(timings), &c.Timings); err != nil {
		return nil, fmt.Errorf("unmarshal timings: %w", err)
	}
	if err := json.Unmarshal([]byte(annotations), &c.Annotations); err != nil {
		return nil, fmt.Errorf("unmarshal annotations: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	c.CreatedAt = parsed
	return &c, nil
}

// Get fetches one case by id. Returns nil when the case is absent.
func (s *Store) Get(ctx context.Context, caseID string) (*Case, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id = ?`, caseID)
	c, err := scanCase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

// List returns the most recent cases, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Case, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+caseColumns+` FROM cases ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var cases []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return cases, nil
}

// Prune deletes cases older than the cutoff and returns the count. A
// zero cutoff deletes everything.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	var deleted int64
	err := s.withWriteLock(ctx, func() error {
		var res sql.Result
		var err error
		if olderThan <= 0 {
			res, err = s.db.ExecContext(ctx, `DELETE FROM cases`)
		} else {
			cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
			res, err = s.db.ExecContext(ctx, `DELETE FROM cases WHERE created_at < ?`, cutoff)
		}
		if err != nil {
			return fmt.Errorf("prune cases: %w", err)
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		return nil
	})
	return deleted, err
}
