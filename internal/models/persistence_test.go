package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	state := NewGameState(CivEgypt)
	state.Turn = 7
	state.Phase = PhaseOutcome
	if err := store.Save("game-a", state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load("game-a")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a saved game")
	}
	if loaded.Turn != 7 || loaded.Civilization != CivEgypt || loaded.Phase != PhaseOutcome {
		t.Errorf("roundtrip mismatch: %+v", loaded)
	}
}

func TestFileStoreLoadAbsent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	loaded, err := store.Load("nope")
	if err != nil || loaded != nil {
		t.Errorf("absent save should load as (nil, nil), got (%v, %v)", loaded, err)
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("{{{not yaml"), 0644); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load("bad")
	if err != nil || loaded != nil {
		t.Errorf("corrupt save should load as (nil, nil), got (%v, %v)", loaded, err)
	}

	// A parseable file with a bogus phase is just as unusable.
	if err := os.WriteFile(filepath.Join(dir, "odd.yaml"), []byte("phase: exploded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	loaded, err = store.Load("odd")
	if err != nil || loaded != nil {
		t.Errorf("unknown phase should load as (nil, nil), got (%v, %v)", loaded, err)
	}
}

func TestFileStoreIDIndex(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	for _, id := range []string{"first", "second", "third"} {
		if err := store.Save(id, NewGameState(CivRome)); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}
	// Re-saving must not duplicate an id.
	if err := store.Save("second", NewGameState(CivRome)); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	ids, err := store.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(ids) != len(want) {
		t.Fatalf("got ids %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids out of order: got %v, want %v", ids, want)
		}
	}

	if err := store.Delete("second"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ids, err = store.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs after delete: %v", err)
	}
	if len(ids) != 2 || ids[0] != "first" || ids[1] != "third" {
		t.Errorf("after delete got %v", ids)
	}

	if loaded, _ := store.Load("second"); loaded != nil {
		t.Error("deleted game should not load")
	}
}

func TestNewGameID(t *testing.T) {
	a, b := NewGameID(), NewGameID()
	if a == "" || a == b {
		t.Errorf("ids should be unique and non-empty: %q %q", a, b)
	}
}
