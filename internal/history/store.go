// Package history keeps a SQLite log of analysis runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/hsu-aut/PDDL-and-SMT-Metrics-Framework/internal/report"
)

// timeLayout has fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Store manages run history in SQLite.
type Store struct {
	DBPath string
	db     *sql.DB
	logger *zap.Logger
}

// Run is one recorded analysis.
type Run struct {
	ID        string        `json:"id" yaml:"id"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	Command   string        `json:"command" yaml:"command"`
	Inputs    []string      `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Result    report.Result `json:"result" yaml:"result"`
}

// Open opens or creates the history database at path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history db path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve history db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history db dir: %w", err)
	}

	db, err := sql.Open("sqlite", absPath)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	store := &Store{
		DBPath: absPath,
		db:     db,
		logger: logger,
	}

	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensureSchema() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	command TEXT NOT NULL,
	inputs_json TEXT NOT NULL,
	result_json TEXT NOT NULL,
	failed INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Record stores run and returns its id. A missing id or timestamp is filled
// in.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	inputsJSON, err := json.Marshal(run.Inputs)
	if err != nil {
		return "", fmt.Errorf("marshal inputs: %w", err)
	}
	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	failed := 0
	if run.Result.Failed() {
		failed = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, command, inputs_json, result_json, failed)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.CreatedAt.UTC().Format(timeLayout), run.Command, string(inputsJSON), string(resultJSON), failed)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	s.logger.Debug("run recorded", zap.String("id", run.ID), zap.String("command", run.Command))
	return run.ID, nil
}

// List returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, created_at, command, inputs_json, result_json FROM runs ORDER BY created_at DESC, id`
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

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, command, inputs_json, result_json FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run                 Run
		createdAt           string
		inputsJSON, resJSON string
	)
	if err := row.Scan(&run.ID, &createdAt, &run.Command, &inputsJSON, &resJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse run %s created_at: %w", run.ID, err)
	}
	run.CreatedAt = ts
	if err := json.Unmarshal([]byte(inputsJSON), &run.Inputs); err != nil {
		return nil, fmt.Errorf("decode run %s inputs: %w", run.ID, err)
	}
	if err := json.Unmarshal([]byte(resJSON), &run.Result); err != nil {
		return nil, fmt.Errorf("decode run %s result: %w", run.ID, err)
	}
	return &run, nil
}
