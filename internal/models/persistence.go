package models

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// StateStore persists full game snapshots keyed by game id. A Load of an
// absent or corrupt save returns (nil, nil): the caller starts a fresh game
// rather than crashing.
type StateStore interface {
	Save(id string, state *GameState) error
	Load(id string) (*GameState, error)
	Delete(id string) error
	ListIDs() ([]string, error)
}

// NewGameID returns a fresh identifier for a new game.
func NewGameID() string {
	return uuid.NewString()
}

// FileStore keeps one YAML file per game under a save directory, plus an
// insertion-ordered index of known game ids.
type FileStore struct {
	Dir string
}

const idIndexFile = "games.yaml"

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (fs *FileStore) statePath(id string) string {
	// Base guards against ids escaping the save dir.
	return filepath.Join(fs.Dir, filepath.Base(id)+".yaml")
}

func (fs *FileStore) Save(id string, state *GameState) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(fs.statePath(id), data, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return fs.addID(id)
}

func (fs *FileStore) Load(id string) (*GameState, error) {
	data, err := os.ReadFile(fs.statePath(id))
	if err != nil {
		return nil, nil
	}
	var state GameState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, nil
	}
	if !ValidPhase(state.Phase) {
		return nil, nil
	}
	return &state, nil
}

func (fs *FileStore) Delete(id string) error {
	if err := os.Remove(fs.statePath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete state: %w", err)
	}
	return fs.removeID(id)
}

// ListIDs returns known game ids in the order they were first saved.
func (fs *FileStore) ListIDs() ([]string, error) {
	data, err := os.ReadFile(filepath.Join(fs.Dir, idIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read id index: %w", err)
	}
	var ids []string
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return []string{}, nil
	}
	return ids, nil
}

func (fs *FileStore) addID(id string) error {
	ids, err := fs.ListIDs()
	if err != nil {
		return err
	}
	for _, known := range ids {
		if known == id {
			return nil
		}
	}
	return fs.writeIDs(append(ids, id))
}

func (fs *FileStore) removeID(id string) error {
	ids, err := fs.ListIDs()
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, known := range ids {
		if known != id {
			kept = append(kept, known)
		}
	}
	return fs.writeIDs(kept)
}

func (fs *FileStore) writeIDs(ids []string) error {
	path := filepath.Join(fs.Dir, idIndexFile)
	if len(ids) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove id index: %w", err)
		}
		return nil
	}
	data, err := yaml.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal id index: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write id index: %w", err)
	}
	return nil
}
