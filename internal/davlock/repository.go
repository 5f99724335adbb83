package davlock

import (
	"context"
	"net/http"
)

// Repository is the subset of the versioned filesystem this package
// consumes. Everything else about the repository — its transaction
// model, its on-disk format, its commit pipeline — is a collaborator
// this package never touches directly.
type Repository interface {
	// YoungestRevision returns the repository's current youngest
	// revision number.
	YoungestRevision(ctx context.Context) (int64, error)

	// GetLockByPath returns the lock currently attached to path, or
	// (nil, nil) if path has no lock.
	GetLockByPath(ctx context.Context, path string) (*RepoLock, error)

	// GetLockByToken returns the lock identified by token. It returns
	// ErrBadLockToken if no lock has that token, or ErrLockExpired if
	// the lock exists but has expired.
	GetLockByToken(ctx context.Context, token string) (*RepoLock, error)

	// GenerateToken mints a fresh, repository-unique token (a bare
	// UUID string, with no "opaquelocktoken:" prefix).
	GenerateToken(ctx context.Context) (string, error)

	// AttachLock records lock against the repository, either creating
	// it or, if force is true, stealing it from its current holder.
	// workingRevnum, when not InvalidRevnum, enables an
	// out-of-dateness check: the call fails if the path has changed
	// more recently than that revision. AttachLock returns ErrNoUser
	// if lock.Owner is empty (no authenticated principal).
	AttachLock(ctx context.Context, lock *RepoLock, force bool, workingRevnum int64) error

	// Unlock removes the lock identified by token. force, when true,
	// allows removing a lock owned by someone other than who. Unlock
	// returns ErrNoUser if who is empty.
	Unlock(ctx context.Context, token string, force bool, who string) error
}

// AuthzReadFunc decides whether the principal behind r may observe
// path as of revision rev. It is supplied by the host DAV layer (here, by whatever wires
// up a Provider) and is invoked on every lock-observing and
// lock-mutating operation.
type AuthzReadFunc func(ctx context.Context, rev int64, path string, r *http.Request) (bool, error)
