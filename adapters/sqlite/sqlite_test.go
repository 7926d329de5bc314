package sqlite_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/scoreapi/adapters/clock"
	"github.com/artpar/scoreapi/adapters/sqlite"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scoreapi-test.db")
	db, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		os.Remove(path)
	})
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", count)
	}
}

func TestKVStore_SetGet(t *testing.T) {
	db := setupTestDB(t)
	store := sqlite.NewKVStore(db, clock.NewFake(baseTime))
	ctx := context.Background()

	if _, found, err := store.Get(ctx, "i:1"); err != nil || found {
		t.Fatalf("Get(missing) = %v, %v", found, err)
	}

	if err := store.Set(ctx, "i:1", `["books"]`, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, found, err := store.Get(ctx, "i:1")
	if err != nil || !found || v != `["books"]` {
		t.Errorf("Get = %q, %v, %v", v, found, err)
	}

	if err := store.Set(ctx, "i:1", `["cars"]`, 0); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if v, _, _ := store.Get(ctx, "i:1"); v != `["cars"]` {
		t.Errorf("after overwrite Get = %q", v)
	}
}

func TestKVStore_Expiry(t *testing.T) {
	db := setupTestDB(t)
	c := clock.NewFake(baseTime)
	store := sqlite.NewKVStore(db, c)
	ctx := context.Background()

	store.Set(ctx, "uid:a", "3", time.Hour)
	store.Set(ctx, "uid:b", "1.5", 2*time.Hour)
	store.Set(ctx, "forever", "x", 0)

	c.Advance(time.Hour)

	if _, found, _ := store.Get(ctx, "uid:a"); found {
		t.Error("uid:a should have expired")
	}
	if _, found, _ := store.Get(ctx, "uid:b"); !found {
		t.Error("uid:b should still be live")
	}

	c.Advance(time.Hour)
	n, err := store.Purge(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("Purge removed %d rows, want 1", n)
	}
	if _, found, _ := store.Get(ctx, "forever"); !found {
		t.Error("key without ttl should survive purge")
	}
}

func TestKVStore_Ping(t *testing.T) {
	db := setupTestDB(t)
	store := sqlite.NewKVStore(db, clock.Real{})

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() = %v", err)
	}
}
