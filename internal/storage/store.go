// Package storage persists projects and their chat history in an embedded
// SQLite database.
//
// A project is stored as one JSON document per row; the columns next to it
// (name, timestamps) exist so listings do not need to decode every document.
// Failures that a user can act on are returned as *Error values carrying a
// presentable message.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/phasegate/internal/project"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeNow stamps UpdatedAt on every Put.
var timeNow = time.Now

// DBFile is the database file name inside the data directory.
const DBFile = "phasegate.db"

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds storage configuration.
type Config struct {
	DataDir string
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistence boundary backed by SQLite.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New creates a Store in cfg.DataDir. It creates the directory if needed,
// opens SQLite in WAL mode and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("storage: create data dir: %w", classify("open", err))
	}

	// Connection-scoped pragmas go in the DSN so every pooled connection
	// gets them.
	dsn := filepath.Join(cfg.DataDir, DBFile) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", classify("open", err))
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("storage: pragma %q: %w", p, classify("open", err))
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: migration: %w", classify("open", err))
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			data        TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			archived_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_projects_updated ON projects(updated_at DESC);

		CREATE TABLE IF NOT EXISTS chat_messages (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_chat_project ON chat_messages(project_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Projects ────────────────────────────────────────────────────────────────

// Get loads a project by id. A missing project is not an error: it returns
// (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*project.Project, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM projects WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get", err)
	}

	var p project.Project
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, &Error{Op: "get", Message: MsgLoad, Err: err}
	}
	return &p, nil
}

// Put inserts or replaces a project and stamps its UpdatedAt.
func (s *Store) Put(ctx context.Context, p *project.Project) error {
	if p == nil {
		return errors.New("storage: project cannot be nil")
	}
	p.UpdatedAt = timeNow().UTC()

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("storage: encode project: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, data, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			data = excluded.data,
			updated_at = excluded.updated_at,
			archived_at = excluded.archived_at`,
		p.ID, p.Name, string(data), formatTime(p.CreatedAt), formatTime(p.UpdatedAt), nullableTime(p.ArchivedAt),
	)
	if err != nil {
		return classify("put", err)
	}
	return nil
}

// Delete removes a project and its chat history. Deleting a missing project
// is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return classify("delete", err)
	}
	return nil
}

// List returns every project, most recently updated first. Archived projects
// are included only when includeArchived is set.
func (s *Store) List(ctx context.Context, includeArchived bool) ([]project.Project, error) {
	query := `SELECT data FROM projects`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("list", err)
	}
	defer func() { _ = rows.Close() }()

	var results []project.Project
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, classify("list", err)
		}
		var p project.Project
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, &Error{Op: "list", Message: MsgLoad, Err: err}
		}
		results = append(results, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list", err)
	}
	return results, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
