package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"agriqa/internal/corpus"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ RunStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			seed INTEGER,
			target_size INTEGER,
			size INTEGER,
			created_at TEXT,
			settings JSON
		);`,
		`CREATE TABLE IF NOT EXISTS records (
			run_id TEXT,
			position INTEGER,
			question TEXT,
			intent TEXT,
			persona TEXT,
			produce TEXT,
			condition TEXT,
			PRIMARY KEY (run_id, question)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_records_intent ON records(run_id, intent);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run, table corpus.Table) (Run, error) {
	if run.ID == "" {
		return Run{}, fmt.Errorf("run id is required")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if len(run.Settings) == 0 {
		run.Settings = []byte("{}")
	}
	run.Size = len(table.Dedup())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, seed, target_size, size, created_at, settings)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			seed=excluded.seed,
			target_size=excluded.target_size,
			size=excluded.size,
			created_at=excluded.created_at,
			settings=excluded.settings
	`, run.ID, run.Seed, run.TargetSize, run.Size, run.CreatedAt.Format(time.RFC3339Nano), string(run.Settings)); err != nil {
		return Run{}, fmt.Errorf("failed to save run: %w", err)
	}

	// Replace the record snapshot of a re-saved run.
	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE run_id = ?", run.ID); err != nil {
		return Run{}, fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (run_id, position, question, intent, persona, produce, condition)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, question) DO NOTHING
	`)
	if err != nil {
		return Run{}, err
	}
	defer stmt.Close()

	for i, r := range table {
		if _, err := stmt.ExecContext(ctx, run.ID, i, r.Question, r.Intent, r.Persona, r.Produce, r.Condition); err != nil {
			return Run{}, fmt.Errorf("failed to save record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *SQLiteStore) LoadRun(ctx context.Context, id string) (Run, corpus.Table, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		"SELECT id, seed, target_size, size, created_at, settings FROM runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, nil, fmt.Errorf("failed to load run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT question, intent, persona, produce, condition
		FROM records WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return Run{}, nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	table := make(corpus.Table, 0, run.Size)
	for rows.Next() {
		var r corpus.Record
		if err := rows.Scan(&r.Question, &r.Intent, &r.Persona, &r.Produce, &r.Condition); err != nil {
			return Run{}, nil, fmt.Errorf("failed to scan record: %w", err)
		}
		table = append(table, r)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, err
	}
	return run, table, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, seed, target_size, size, created_at, settings FROM runs ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE run_id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		created  string
		settings sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Seed, &run.TargetSize, &run.Size, &created, &settings); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("bad created_at %q: %w", created, err)
	}
	run.CreatedAt = t
	if settings.Valid {
		run.Settings = []byte(settings.String)
	}
	return run, nil
}
