package storage

import (
	"errors"
	"os"
	"testing"

	"github.com/starford/travelmate/internal/apperr"
)

func tempSQLite(t *testing.T) *SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "travelmate-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_SetGetOverwriteRemove(t *testing.T) {
	db := tempSQLite(t)

	if _, err := db.Get(KeyTrips); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get on empty db = %v, want ErrNotFound", err)
	}

	if err := db.Set(KeyTrips, []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := db.Set(KeyTrips, []byte(`[{"id":"x"}]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := db.Get(KeyTrips)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"id":"x"}]` {
		t.Errorf("value = %q", got)
	}

	if err := db.Remove(KeyTrips); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := db.Get(KeyTrips); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get after remove = %v, want ErrNotFound", err)
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	in := []byte("abc")
	_ = m.Set("k", in)
	in[0] = 'z'

	got, _ := m.Get("k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
	got[1] = 'z'
	again, _ := m.Get("k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased stored slice: %q", again)
	}
}
