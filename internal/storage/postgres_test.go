package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/travelmate/internal/apperr"
	"github.com/starford/travelmate/internal/storage"
	"github.com/starford/travelmate/internal/testutil"
)

func TestPostgres_SetGetRemove(t *testing.T) {
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	pg := storage.NewPostgres(tx)

	if _, err := pg.Get(storage.KeyTrips); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get on empty table = %v, want ErrNotFound", err)
	}
	if err := pg.Set(storage.KeyTrips, []byte(`[]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := pg.Set(storage.KeyTrips, []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := pg.Get(storage.KeyTrips)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `[{"id":"a"}]` {
		t.Errorf("value = %q", got)
	}
	if err := pg.Remove(storage.KeyTrips); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := pg.Get(storage.KeyTrips); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get after remove = %v, want ErrNotFound", err)
	}
}
