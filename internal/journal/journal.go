// Package journal keeps a local SQLite audit trail of deletion steps so a
// pixel left deprovisioned but not purged stays visible across restarts.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pixel-admin/internal/deleter"
)

// Entry is one recorded step outcome.
type Entry struct {
	ID        int64     `json:"id"`
	AttemptID string    `json:"attemptId"`
	PixelID   string    `json:"pixelId"`
	Mode      string    `json:"mode,omitempty"`
	Step      string    `json:"step"`
	OK        bool      `json:"ok"`
	Err       string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// Store is a deleter.Recorder backed by SQLite.
type Store struct {
	db *sql.DB
}

var _ deleter.Recorder = (*Store)(nil)

// New opens the journal at path and creates its schema. Use ":memory:" in
// tests.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := NewWithDB(db)
	if err := s.CreateSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an open database without touching its schema.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) CreateSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create journal schema: %w", err)
	}
	return nil
}

// Record appends ev.
func (s *Store) Record(ctx context.Context, ev deleter.StepEvent) error {
	ok := 0
	if ev.OK {
		ok = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO steps (attempt_id, pixel_id, mode, step, ok, error, recorded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.AttemptID, ev.PixelID, string(ev.Mode), string(ev.Step), ok, ev.Err, ev.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record step: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A limit of zero or less
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT id, attempt_id, pixel_id, mode, step, ok, error, recorded_at FROM steps ORDER BY id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &e.AttemptID, &e.PixelID, &e.Mode, &e.Step, &e.OK, &e.Err, &at); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Partial lists pixels whose latest successful SimpleAudience removal has no
// successful database purge after it.
func (s *Store) Partial(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT d.pixel_id FROM steps d
WHERE d.step = 'deprovision' AND d.ok = 1
GROUP BY d.pixel_id
HAVING MAX(d.id) > COALESCE(
    (SELECT MAX(p.id) FROM steps p WHERE p.pixel_id = d.pixel_id AND p.step = 'purge' AND p.ok = 1), 0)
ORDER BY d.pixel_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query partial deletions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan partial deletion: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
