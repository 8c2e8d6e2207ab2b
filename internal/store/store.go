// Package store keeps an optional history of extraction runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"workshopmods/internal/pipeline"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Store persists runs and their per-item results.
type Store struct {
	db *sql.DB
}

// New returns a Store using db. The schema must already be migrated.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ResolveDBPath returns p, or p/runs.db when p is a directory.
func ResolveDBPath(p string) string {
	info, err := os.Stat(p)
	if err == nil && info.IsDir() {
		return filepath.Join(p, "runs.db")
	}
	return p
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	path = ResolveDBPath(path)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path))
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return New(db), nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// RunRecord is a stored run.
type RunRecord struct {
	ID         string       `json:"id"`
	Variant    string       `json:"variant"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Items      int          `json:"items"`
	Found      int          `json:"found"`
	ModIDs     []string     `json:"mod_ids"`
	Results    []ItemRecord `json:"results,omitempty"`
}

// ItemRecord is the stored result of one item.
type ItemRecord struct {
	Position int      `json:"position"`
	ItemID   string   `json:"item_id"`
	ModIDs   []string `json:"mod_ids"`
	Title    string   `json:"title,omitempty"`
	Status   string   `json:"status"`
	Download string   `json:"download,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Record stores run and its results in one transaction.
func (s *Store) Record(ctx context.Context, run *pipeline.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs(id, variant, started_at, finished_at, items, found, mod_ids) VALUES(?,?,?,?,?,?,?)`,
		run.ID, string(run.Variant), run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Summary.Items, run.Summary.Found, joinIDs(run.ModIDs))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for i, r := range run.Results {
		var errMsg string
		if r.Err != nil {
			errMsg = r.Err.Error()
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO results(run_id, position, item_id, mod_ids, title, status, download, error) VALUES(?,?,?,?,?,?,?,?)`,
			run.ID, i, r.ItemID, joinIDs(r.ModIDs), r.Title, string(r.Status), string(r.Download), errMsg)
		if err != nil {
			return fmt.Errorf("insert result %s: %w", r.ItemID, err)
		}
	}
	return tx.Commit()
}

// ListRuns returns the most recent runs first, without item results.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, variant, started_at, finished_at, items, found, mod_ids FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	runs := []RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRun returns a run with its item results in source order.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, variant, started_at, finished_at, items, found, mod_ids FROM runs WHERE id=?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT position, item_id, mod_ids, title, status, download, error FROM results WHERE run_id=? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it ItemRecord
		var ids string
		if err := rows.Scan(&it.Position, &it.ItemID, &ids, &it.Title, &it.Status, &it.Download, &it.Error); err != nil {
			return nil, err
		}
		it.ModIDs = splitIDs(ids)
		run.Results = append(run.Results, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*RunRecord, error) {
	var r RunRecord
	var ids string
	if err := sc.Scan(&r.ID, &r.Variant, &r.StartedAt, &r.FinishedAt, &r.Items, &r.Found, &ids); err != nil {
		return nil, err
	}
	r.ModIDs = splitIDs(ids)
	return &r, nil
}

func joinIDs(ids []string) string { return strings.Join(ids, ";") }

func splitIDs(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ";")
}
