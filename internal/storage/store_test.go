package storage

import (
	"path/filepath"
	"testing"

	"github.com/tatianab/ancient-cities/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "games.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundtrip(t *testing.T) {
	store := openTestStore(t)

	state := models.NewGameState(models.CivIndia)
	state.Turn = 4
	state.Phase = models.PhaseEvent
	state.History = []models.HistoryEntry{{Turn: 3, Year: -980, EventTitle: "Monsoon", ChoiceLabel: "Raise the granaries"}}

	if err := store.Save("g1", state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load("g1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a saved game")
	}
	if loaded.Turn != 4 || loaded.Civilization != models.CivIndia || len(loaded.History) != 1 {
		t.Errorf("roundtrip mismatch: %+v", loaded)
	}
}

func TestStoreLoadAbsent(t *testing.T) {
	store := openTestStore(t)
	loaded, err := store.Load("missing")
	if err != nil || loaded != nil {
		t.Errorf("absent game should load as (nil, nil), got (%v, %v)", loaded, err)
	}
}

func TestStoreListOrderAndUpsert(t *testing.T) {
	store := openTestStore(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := store.Save(id, models.NewGameState(models.CivRome)); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	// Updating an existing game keeps its original position.
	updated := models.NewGameState(models.CivRome)
	updated.Turn = 9
	if err := store.Save("a", updated); err != nil {
		t.Fatalf("re-save: %v", err)
	}

	ids, err := store.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(ids) != 3 {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("insertion order lost: got %v, want %v", ids, want)
		}
	}

	loaded, err := store.Load("a")
	if err != nil || loaded == nil || loaded.Turn != 9 {
		t.Errorf("upsert lost data: %+v err=%v", loaded, err)
	}
}

func TestStoreDelete(t *testing.T) {
	store := openTestStore(t)
	if err := store.Save("gone", models.NewGameState(models.CivEgypt)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Delete("gone"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if loaded, _ := store.Load("gone"); loaded != nil {
		t.Error("deleted game should not load")
	}
	ids, err := store.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no ids, got %v", ids)
	}
}
