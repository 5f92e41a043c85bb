// Package storage provides a SQLite-backed StateStore as an alternative to
// the default per-file YAML saves.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/tatianab/ancient-cities/internal/models"
)

// Store persists game snapshots as YAML blobs in a single SQLite database.
// Insertion order is preserved via the autoincrement sequence column.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS games (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	state      BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

// Open opens (or creates) the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("open: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("open: create db dir: %w", err)
	}

	dsn := "file:" + dbPath + "?mode=rwc"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: sql open: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(id string, state *models.GameState) error {
	if id == "" {
		return fmt.Errorf("save game: empty id")
	}
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("save game: marshal: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.Exec(`INSERT INTO games (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		id, data, now)
	if err != nil {
		return fmt.Errorf("save game: upsert: %w", err)
	}
	return nil
}

// Load returns the snapshot for id, or (nil, nil) when it is absent or the
// stored blob no longer parses.
func (s *Store) Load(id string) (*models.GameState, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT state FROM games WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load game: query: %w", err)
	}
	var state models.GameState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, nil
	}
	if !models.ValidPhase(state.Phase) {
		return nil, nil
	}
	return &state, nil
}

func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM games WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}

// ListIDs returns game ids in the order they were first saved.
func (s *Store) ListIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM games ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list games: query: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list games: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: rows: %w", err)
	}
	return ids, nil
}
