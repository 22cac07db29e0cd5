package storage

import (
	"database/sql"
	"io"
	"os"
	"reflect"
	"testing"

	"github.com/google/logger"
	_ "modernc.org/sqlite"

	"giftexchange/internal/exchange"
	"giftexchange/internal/models"
)

func TestMain(m *testing.M) {
	l := logger.Init("storage_test", false, false, io.Discard)
	code := m.Run()
	l.Close()
	os.Exit(code)
}

// openTestStore creates a SnapshotStore over an in-memory SQLite database.
func openTestStore(t *testing.T) (*SnapshotStore, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewWithDB(db)
	if err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store, db
}

func sampleSnapshot() exchange.Snapshot {
	alice := models.Participant{ID: "a", Name: "Alice", Wishlist: "novels", PreferredReceiver: "Bob"}
	bob := models.Participant{ID: "b", Name: "Bob", Wishlist: "vinyl"}
	return exchange.Snapshot{
		Roster: []models.Participant{alice, bob},
		Assignments: []models.Assignment{
			{Giver: alice, Receiver: bob, Revealed: true},
			{Giver: bob, Receiver: alice},
		},
		Step: models.StepReveal,
	}
}

func TestSnapshotStore(t *testing.T) {
	t.Run("save then load round-trips the session", func(t *testing.T) {
		store, _ := openTestStore(t)
		want := sampleSnapshot()

		if err := store.Save(want); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Round-trip mismatch:\n got %+v\nwant %+v", got, want)
		}
	})

	t.Run("load from an empty store yields defaults", func(t *testing.T) {
		store, _ := openTestStore(t)
		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Roster != nil || got.Assignments != nil || got.Step != "" {
			t.Errorf("Expected the zero snapshot, got %+v", got)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		store, _ := openTestStore(t)
		first := sampleSnapshot()
		if err := store.Save(first); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		second := first
		second.Assignments = nil
		second.Step = models.StepSetup
		if err := store.Save(second); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Step != models.StepSetup || len(got.Assignments) != 0 {
			t.Errorf("Expected the second write to win, got %+v", got)
		}
	})

	t.Run("a malformed entry defaults only its own field", func(t *testing.T) {
		store, db := openTestStore(t)
		if err := store.Save(sampleSnapshot()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		// Corrupt only the assignments entry.
		if _, err := db.Exec("UPDATE snapshot SET value = 'not json {' WHERE key = 'assignments'"); err != nil {
			t.Fatalf("Failed to corrupt entry: %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load must not fail on partial corruption: %v", err)
		}
		if got.Assignments != nil {
			t.Errorf("Expected the corrupted assignments to default, got %+v", got.Assignments)
		}
		if len(got.Roster) != 2 || got.Step != models.StepReveal {
			t.Errorf("Unrelated entries must survive corruption, got %+v", got)
		}
	})

	t.Run("an unknown step value is discarded", func(t *testing.T) {
		store, db := openTestStore(t)
		if err := store.Save(sampleSnapshot()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if _, err := db.Exec(`UPDATE snapshot SET value = '"PARTY"' WHERE key = 'step'`); err != nil {
			t.Fatalf("Failed to corrupt entry: %v", err)
		}

		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Step != "" {
			t.Errorf("Expected the unknown step to default, got %q", got.Step)
		}
	})

	t.Run("clear drops all entries", func(t *testing.T) {
		store, _ := openTestStore(t)
		if err := store.Save(sampleSnapshot()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := store.Clear(); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		got, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got.Roster != nil || got.Assignments != nil || got.Step != "" {
			t.Errorf("Expected an empty store after Clear, got %+v", got)
		}
	})
}
