package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr, func() {
		client.Close()
		mr.Close()
	}
}

func TestLock_AcquireAndContention(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	first := NewLock(client)
	second := NewLock(client)

	ok, err := first.Acquire(ctx, "index:doc:1", time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}

	ok, err = second.Acquire(ctx, "index:doc:1", time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if ok {
		t.Error("expected contended acquire to fail")
	}

	ok, _ = second.Acquire(ctx, "index:doc:2", time.Minute)
	if !ok {
		t.Error("expected unrelated lock name to acquire")
	}
}

func TestLock_ReleaseOnlyByOwner(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	owner := NewLock(client)
	other := NewLock(client)

	ok, _ := owner.Acquire(ctx, "index:doc:1", time.Minute)
	if !ok {
		t.Fatal("acquire failed")
	}

	if err := other.Release(ctx, "index:doc:1"); err != nil {
		t.Fatalf("foreign release should be a no-op: %v", err)
	}
	ok, _ = other.Acquire(ctx, "index:doc:1", time.Minute)
	if ok {
		t.Error("lock should still be held after foreign release")
	}

	if err := owner.Release(ctx, "index:doc:1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, _ = other.Acquire(ctx, "index:doc:1", time.Minute)
	if !ok {
		t.Error("lock should be free after owner release")
	}
}

func TestLock_ExpiryAllowsReacquire(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	lock := NewLock(client)
	ok, _ := lock.Acquire(ctx, "index:doc:1", time.Second)
	if !ok {
		t.Fatal("acquire failed")
	}

	mr.FastForward(2 * time.Second)

	other := NewLock(client)
	ok, _ = other.Acquire(ctx, "index:doc:1", time.Minute)
	if !ok {
		t.Error("expired lock should be acquirable")
	}
}

func TestLock_Extend(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	owner := NewLock(client)
	other := NewLock(client)

	ok, _ := owner.Acquire(ctx, "index:doc:1", time.Minute)
	if !ok {
		t.Fatal("acquire failed")
	}

	if err := owner.Extend(ctx, "index:doc:1", 2*time.Minute); err != nil {
		t.Errorf("extend by owner: %v", err)
	}
	if err := other.Extend(ctx, "index:doc:1", 2*time.Minute); err == nil {
		t.Error("extend by non-owner should fail")
	}
	if err := owner.Extend(ctx, "never-held", time.Minute); err == nil {
		t.Error("extend of unheld lock should fail")
	}
}

func TestSessionStore_SaveGetDelete(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	store := NewSessionStore(client)
	session := domain.NewSession("sess-1", "de")

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Language != "de" {
		t.Errorf("unexpected language: %q", got.Language)
	}
	if got.State != domain.SessionStateIdle {
		t.Errorf("expected idle state, got %s", got.State)
	}

	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "sess-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	// deleting again is safe
	if err := store.Delete(ctx, "sess-1"); err != nil {
		t.Errorf("repeated delete: %v", err)
	}
}

func TestSessionStore_Gate(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	store := NewSessionStore(client)
	_ = store.Save(ctx, domain.NewSession("sess-1", "en"))

	ok, err := store.AcquireGate(ctx, "sess-1")
	if err != nil {
		t.Fatalf("acquire gate: %v", err)
	}
	if !ok {
		t.Fatal("expected gate acquisition")
	}

	got, _ := store.Get(ctx, "sess-1")
	if got.State != domain.SessionStateBusy {
		t.Errorf("expected busy state while gate held, got %s", got.State)
	}

	ok, _ = store.AcquireGate(ctx, "sess-1")
	if ok {
		t.Error("second acquisition should be rejected while busy")
	}

	if err := store.ReleaseGate(ctx, "sess-1"); err != nil {
		t.Fatalf("release gate: %v", err)
	}
	ok, _ = store.AcquireGate(ctx, "sess-1")
	if !ok {
		t.Error("gate should be free after release")
	}
}

func TestSessionStore_GateUnknownSession(t *testing.T) {
	client, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewSessionStore(client)

	_, err := store.AcquireGate(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionStore_GateTTLReclaim(t *testing.T) {
	client, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	store := NewSessionStore(client)
	_ = store.Save(ctx, domain.NewSession("sess-1", "en"))

	ok, _ := store.AcquireGate(ctx, "sess-1")
	if !ok {
		t.Fatal("acquire failed")
	}

	mr.FastForward(gateTTL + time.Second)

	ok, _ = store.AcquireGate(ctx, "sess-1")
	if !ok {
		t.Error("gate should be reclaimable after TTL expiry")
	}
}
