// Package memrepo is an in-memory davlock.Repository, useful for tests
// and for running a demo server with no external storage. It mirrors
// the map-of-locks-guarded-by-a-mutex shape of a plain in-process lock
// table, generalized to the single-lock-per-path invariant and the
// revision bookkeeping a real versioned repository would own.
package memrepo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/makebin200808/subversion/internal/davlock"
)

var (
	errAlreadyLocked = errors.New("path is already locked")
	errOutOfDate     = errors.New("working revision is out of date")
	errNotOwner      = errors.New("lock is owned by someone else")
)

// Repo is a trivial in-memory stand-in for a versioned filesystem. It
// tracks a monotonically increasing revision counter and, per path, at
// most one lock — enforcing the single-lock invariant by construction
// rather than by runtime check.
type Repo struct {
	mu sync.Mutex

	rev int64

	byPath  map[string]*davlock.RepoLock
	byToken map[string]*davlock.RepoLock

	// readable, when non-nil, gates AuthzRead: a path absent from the
	// set is reported unreadable. nil means everything is readable,
	// the useful default for tests and demos.
	readable map[string]bool
}

// New returns an empty repository at revision 0.
func New() *Repo {
	return &Repo{
		byPath:  make(map[string]*davlock.RepoLock),
		byToken: make(map[string]*davlock.RepoLock),
	}
}

// Commit advances the revision counter, simulating a new commit
// landing so a previously-current working_revnum becomes stale. It
// returns the new revision.
func (r *Repo) Commit() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rev++
	return r.rev
}

// SetReadable restricts or grants read access to path, for exercising
// the authorization gate in tests and demos. Calling it at all switches
// the repo out of the default allow-everything mode.
func (r *Repo) SetReadable(path string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readable == nil {
		r.readable = make(map[string]bool)
	}
	r.readable[path] = ok
}

func (r *Repo) YoungestRevision(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rev, nil
}

// AuthzRead is a davlock.AuthzReadFunc bound to this repository's
// readable set. rev is unused: this reference repository has no
// per-revision ACL history, only a current-state readability map.
func (r *Repo) AuthzRead(ctx context.Context, rev int64, path string, req *http.Request) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readable == nil {
		return true, nil
	}
	return r.readable[path], nil
}

func (r *Repo) GetLockByPath(ctx context.Context, path string) (*davlock.RepoLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byPath[path]
	if !ok {
		return nil, nil
	}
	if r.expiredLocked(l) {
		r.removeLocked(l)
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (r *Repo) GetLockByToken(ctx context.Context, token string) (*davlock.RepoLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.byToken[token]
	if !ok {
		return nil, davlock.ErrBadLockToken
	}
	if r.expiredLocked(l) {
		r.removeLocked(l)
		return nil, davlock.ErrLockExpired
	}
	cp := *l
	return &cp, nil
}

func (r *Repo) GenerateToken(ctx context.Context) (string, error) {
	return uuid.NewString(), nil
}

// AttachLock installs lock as the sole lock on its path. With force
// false, an existing live lock on the path rejects the attempt, and a
// stale workingRevnum (older than the youngest revision) also rejects
// it. force waives both checks, the only path by which a lock can be
// stolen from its current holder.
func (r *Repo) AttachLock(ctx context.Context, lock *davlock.RepoLock, force bool, workingRevnum int64) error {
	if lock.Owner == "" {
		return davlock.ErrNoUser
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !force {
		if existing, ok := r.byPath[lock.Path]; ok && !r.expiredLocked(existing) {
			return fmt.Errorf("%w: %s", errAlreadyLocked, lock.Path)
		}
		if workingRevnum != davlock.InvalidRevnum && workingRevnum < r.rev {
			return fmt.Errorf("%w: %d < %d", errOutOfDate, workingRevnum, r.rev)
		}
	}

	if existing, ok := r.byPath[lock.Path]; ok {
		delete(r.byToken, existing.Token)
	}

	cp := *lock
	r.byPath[lock.Path] = &cp
	r.byToken[lock.Token] = &cp
	return nil
}

func (r *Repo) Unlock(ctx context.Context, token string, force bool, who string) error {
	if who == "" {
		return davlock.ErrNoUser
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.byToken[token]
	if !ok {
		return nil // already gone; removing a nonexistent lock is not an error
	}
	if !force && l.Owner != who {
		return fmt.Errorf("%w: %s holds it, not %s", errNotOwner, l.Owner, who)
	}
	r.removeLocked(l)
	return nil
}

func (r *Repo) expiredLocked(l *davlock.RepoLock) bool {
	return !l.Expires.IsZero() && time.Now().After(l.Expires)
}

func (r *Repo) removeLocked(l *davlock.RepoLock) {
	delete(r.byPath, l.Path)
	delete(r.byToken, l.Token)
}
