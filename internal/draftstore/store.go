package draftstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"quill/internal/work"
)

// Record is one autosaved draft.
type Record struct {
	ID        string
	Mode      work.Mode
	WorkID    int64
	Title     string
	Draft     work.Draft
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists drafts in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the draft database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("draft store path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure draft directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
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

	store := &Store{db: db, path: path}
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
func (s *Store) Path() string { return s.path }

// Save inserts or updates a draft. An empty ID is assigned a new one. Edit
// drafts are keyed by work id, so saving a second draft for the same work
// replaces the first.
func (s *Store) Save(ctx context.Context, id string, draft work.Draft) (*Record, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if draft.Mode == "" {
		draft.Mode = work.ModeCreate
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}
	now := time.Now().UTC().Format(timeLayout)

	var workID any
	if draft.WorkID > 0 {
		workID = draft.WorkID
		if _, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE work_id = ? AND id <> ?`, draft.WorkID, id); err != nil {
			return nil, fmt.Errorf("replace work draft: %w", err)
		}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO drafts (id, mode, work_id, title, payload_json, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
            mode = excluded.mode,
            work_id = excluded.work_id,
            title = excluded.title,
            payload_json = excluded.payload_json,
            updated_at = excluded.updated_at`,
		id, string(draft.Mode), workID, strings.TrimSpace(draft.Title), string(payload), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return s.Get(ctx, id)
}

// Get loads a draft by id. It returns nil when the draft does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// LatestCreate returns the most recently updated create-mode draft.
func (s *Store) LatestCreate(ctx context.Context) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE mode = ? ORDER BY updated_at DESC LIMIT 1`, string(work.ModeCreate))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// List returns every draft, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Delete removes a draft and reports whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete draft: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete draft: %w", err)
	}
	return n > 0, nil
}

// Clear removes every draft and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts`)
	if err != nil {
		return 0, fmt.Errorf("clear drafts: %w", err)
	}
	return res.RowsAffected()
}

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT id, mode, work_id, title, payload_json, created_at, updated_at FROM drafts`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec       Record
		mode      string
		workID    sql.NullInt64
		payload   string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&rec.ID, &mode, &workID, &rec.Title, &payload, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan draft: %w", err)
	}
	rec.Mode = work.Mode(mode)
	if workID.Valid {
		rec.WorkID = workID.Int64
	}
	if err := json.Unmarshal([]byte(payload), &rec.Draft); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", rec.ID, err)
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
