package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	return store, mr
}

func TestRedisStoreSaveLoadDelete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	blob := []byte(`{"email":"a@company.com"}`)
	if err := store.Save(ctx, "sid-1", blob, time.Hour); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(blob) {
		t.Fatalf("blob mismatch: %s", got)
	}

	if err := store.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Load(ctx, "sid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting again is not an error.
	if err := store.Delete(ctx, "sid-1"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestRedisStoreTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "sid-1", []byte("x"), time.Minute); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, err := store.Load(ctx, "sid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestRedisStorePing(t *testing.T) {
	store, mr := newRedisStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	mr.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure after close")
	}
}

func TestRedisStoreRequiresSid(t *testing.T) {
	store, _ := newRedisStore(t)
	if err := store.Save(context.Background(), "  ", []byte("x"), time.Minute); err == nil {
		t.Fatal("expected error for blank sid")
	}
}
