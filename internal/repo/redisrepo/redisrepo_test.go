package redisrepo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/garyburd/redigo/redis"

	"github.com/makebin200808/subversion/internal/davlock"
)

// newTestRepo dials a real Redis instance named by REDIS_ADDR. These
// tests are skipped entirely in environments with no such instance
// available, mirroring how the reference Redis lock store's own tests
// were only ever run against a live server.
func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping redisrepo integration test")
	}
	pool := &redis.Pool{
		Dial: func() (redis.Conn, error) { return redis.Dial("tcp", addr) },
	}
	t.Cleanup(func() { pool.Close() })
	return New(pool, "davlock-test:")
}

func TestAttachAndGetByPathRedis(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	lock := &davlock.RepoLock{Path: "/a/b", Token: "tok-1", Owner: "alice"}
	if err := r.AttachLock(ctx, lock, false, davlock.InvalidRevnum); err != nil {
		t.Fatalf("AttachLock: %v", err)
	}
	defer r.Unlock(ctx, "tok-1", true, "alice")

	got, err := r.GetLockByPath(ctx, "/a/b")
	if err != nil {
		t.Fatalf("GetLockByPath: %v", err)
	}
	if got == nil || got.Token != "tok-1" {
		t.Fatalf("got %+v, want token tok-1", got)
	}
}

func TestAttachLockRejectsDoubleLockRedis(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first := &davlock.RepoLock{Path: "/a/c", Token: "tok-2", Owner: "alice"}
	if err := r.AttachLock(ctx, first, false, davlock.InvalidRevnum); err != nil {
		t.Fatalf("first AttachLock: %v", err)
	}
	defer r.Unlock(ctx, "tok-2", true, "alice")

	second := &davlock.RepoLock{Path: "/a/c", Token: "tok-3", Owner: "bob"}
	if err := r.AttachLock(ctx, second, false, davlock.InvalidRevnum); err == nil {
		t.Fatal("expected the second lock to be rejected")
	}
}

func TestAttachLockForceStealsRedis(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first := &davlock.RepoLock{Path: "/a/d", Token: "tok-4", Owner: "alice"}
	if err := r.AttachLock(ctx, first, false, davlock.InvalidRevnum); err != nil {
		t.Fatalf("first AttachLock: %v", err)
	}

	second := &davlock.RepoLock{Path: "/a/d", Token: "tok-5", Owner: "bob"}
	if err := r.AttachLock(ctx, second, true, davlock.InvalidRevnum); err != nil {
		t.Fatalf("forced AttachLock: %v", err)
	}
	defer r.Unlock(ctx, "tok-5", true, "bob")

	if _, err := r.GetLockByToken(ctx, "tok-4"); err != davlock.ErrBadLockToken {
		t.Fatalf("expected the stolen token to be gone, got %v", err)
	}
}

func TestUnlockRejectsWrongOwnerRedis(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	lock := &davlock.RepoLock{Path: "/a/e", Token: "tok-6", Owner: "alice"}
	if err := r.AttachLock(ctx, lock, false, davlock.InvalidRevnum); err != nil {
		t.Fatalf("AttachLock: %v", err)
	}
	defer r.Unlock(ctx, "tok-6", true, "alice")

	if err := r.Unlock(ctx, "tok-6", false, "bob"); err == nil {
		t.Fatal("expected bob's unlock attempt to be rejected")
	}
}

func TestGenerateTokenIsUnpredictableRedis(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a, err := r.GenerateToken(ctx)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	b, err := r.GenerateToken(ctx)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if a == b {
		t.Fatal("expected two consecutive tokens to differ")
	}
}

func TestBumpRevisionAdvancesYoungestRedis(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	start, err := r.YoungestRevision(ctx)
	if err != nil {
		t.Fatalf("YoungestRevision: %v", err)
	}
	bumped, err := r.BumpRevision(ctx)
	if err != nil {
		t.Fatalf("BumpRevision: %v", err)
	}
	if bumped != start+1 {
		t.Fatalf("BumpRevision = %d, want %d", bumped, start+1)
	}
	got, err := r.YoungestRevision(ctx)
	if err != nil {
		t.Fatalf("YoungestRevision: %v", err)
	}
	if got != bumped {
		t.Fatalf("YoungestRevision after BumpRevision = %d, want %d", got, bumped)
	}
}

func TestAttachLockRejectsOutOfDateRedis(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	current, err := r.BumpRevision(ctx)
	if err != nil {
		t.Fatalf("BumpRevision: %v", err)
	}

	lock := &davlock.RepoLock{Path: "/a/g", Token: "tok-8", Owner: "alice"}
	if err := r.AttachLock(ctx, lock, false, current-1); err == nil {
		t.Fatal("expected a stale working revision to be rejected")
	}
	if err := r.AttachLock(ctx, lock, false, current); err != nil {
		t.Fatalf("expected an up-to-date working revision to succeed, got %v", err)
	}
	defer r.Unlock(ctx, "tok-8", true, "alice")
}

func TestExpiredLockIsSweptOnReadRedis(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	lock := &davlock.RepoLock{Path: "/a/f", Token: "tok-7", Owner: "alice", Expires: time.Now().Add(-time.Second)}
	if err := r.AttachLock(ctx, lock, false, davlock.InvalidRevnum); err != nil {
		t.Fatalf("AttachLock: %v", err)
	}

	got, err := r.GetLockByPath(ctx, "/a/f")
	if err != nil {
		t.Fatalf("GetLockByPath: %v", err)
	}
	if got != nil {
		t.Fatalf("expected the expired lock to be gone, got %+v", got)
	}
}
