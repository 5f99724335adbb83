package davlock

import (
	"errors"
	"time"
)

// supportedLockFragment is the literal XML mod_dav advertises for a
// lockable (non-collection) resource: exclusive, write, nothing else.
const supportedLockFragment = "<D:lockentry><D:lockscope><D:exclusive/></D:lockscope><D:locktype><D:write/></D:locktype></D:lockentry>"

// Provider adapts a Repository and an authorization callback into the
// nine DAV lock-provider entry points. A Provider holds no state of
// its own; everything it needs for a given call is on the DB and the
// Resource passed in.
type Provider struct {
	Repo      Repository
	AuthzRead AuthzReadFunc
}

func (p *Provider) authorize(db *DB, resource *Resource) (bool, error) {
	return authorize(db.Request.Context(), p.Repo, p.AuthzRead, db.Request, resource.RepoPath)
}

// GetSupportedLock returns the supportedlock property body for a
// resource. Collections are not lockable in this model, so they get
// nothing.
func (p *Provider) GetSupportedLock(isCollection bool) string {
	if isCollection {
		return ""
	}
	return supportedLockFragment
}

// RemoveLockNullState takes a resource out of the locknull state. This
// provider does not track a separate locknull table — locknull is
// implicit (a resource is locknull iff it has a lock but does not
// exist) — so this is a no-op. A proper implementation would need to
// track locknull resources so parent PROPFIND listings include them;
// left undone, per the source's own acknowledgment.
func (p *Provider) RemoveLockNullState(db *DB, resource *Resource) error {
	return nil
}

// CreateLock allocates a bare DAV lock record with a fresh token. The
// host fills in scope, type, owner, auth_user and timeout from the
// request body before calling AppendLocks.
func (p *Provider) CreateLock(db *DB, resource *Resource) (*Lock, error) {
	token, err := p.Repo.GenerateToken(db.Request.Context())
	if err != nil {
		return nil, errInternal("Failed to generate a lock token.", err)
	}
	return &Lock{
		RecType:    RecTypeDirect,
		Scope:      ScopeUnknown,
		Type:       TypeUnknown,
		Depth:      0,
		IsLockNull: resource.Exists,
		LockToken:  Token{UUID: token},
	}, nil
}

// GetLocks returns the lock on resource's path, or an empty list.
func (p *Provider) GetLocks(db *DB, resource *Resource) ([]Lock, error) {
	if resource.RepoPath == "" {
		return nil, nil
	}

	// The Big Lie: if the client asked for a forced lock, pretend
	// there's no existing lock no matter what, so the host proceeds to
	// AppendLocks instead of short-circuiting with 423/403. This is
	// the only path by which force-break reaches AttachLock(force=true).
	if db.Force {
		return nil, nil
	}

	readable, err := p.authorize(db, resource)
	if err != nil {
		return nil, err
	}
	if !readable {
		return nil, errUnreadable
	}

	rl, err := p.Repo.GetLockByPath(db.Request.Context(), resource.RepoPath)
	if err != nil {
		return nil, errInternal("Failed to check path for a lock.", err)
	}
	if rl == nil {
		return nil, nil
	}
	return []Lock{RepoToDAV(rl, resource.Exists)}, nil
}

// FindLock looks up a single lock by token. A not-found or expired
// token is reported as "no lock", not as an error.
func (p *Provider) FindLock(db *DB, resource *Resource, token Token) (*Lock, error) {
	readable, err := p.authorize(db, resource)
	if err != nil {
		return nil, err
	}
	if !readable {
		return nil, errUnreadable
	}

	rl, err := p.Repo.GetLockByToken(db.Request.Context(), token.UUID)
	if err != nil {
		if errors.Is(err, ErrBadLockToken) || errors.Is(err, ErrLockExpired) {
			return nil, nil
		}
		return nil, errInternal("Failed to lookup lock via token.", err)
	}
	if rl == nil {
		return nil, nil
	}
	out := RepoToDAV(rl, resource.Exists)
	return &out, nil
}

// HasLocks is a cheap presence check. Like GetLocks, it honors the Big
// Lie, and it may report true for an expired lock the repository hasn't
// swept yet.
func (p *Provider) HasLocks(db *DB, resource *Resource) (bool, error) {
	if resource.RepoPath == "" {
		return false, nil
	}
	if db.Force {
		return false, nil
	}

	readable, err := p.authorize(db, resource)
	if err != nil {
		return false, err
	}
	if !readable {
		return false, errUnreadable
	}

	rl, err := p.Repo.GetLockByPath(db.Request.Context(), resource.RepoPath)
	if err != nil {
		return false, errInternal("Failed to check path for a lock.", err)
	}
	return rl != nil, nil
}

// AppendLocks is the actual lock-creation operation. Only a
// single-element lock chain is supported; batched lock creation is
// structurally rejected.
func (p *Provider) AppendLocks(db *DB, resource *Resource, locks []Lock) error {
	readable, err := p.authorize(db, resource)
	if err != nil {
		return err
	}
	if !readable {
		return errUnreadable
	}

	if len(locks) > 1 {
		return errMultiLock
	}
	if len(locks) == 0 {
		return errInternal("Tried to attach zero locks to a resource.", nil)
	}

	rl, err := DAVToRepo(&locks[0], resource.RepoPath)
	if err != nil {
		return err
	}

	if err := p.Repo.AttachLock(db.Request.Context(), rl, db.Force, db.WorkingRevnum); err != nil {
		if errors.Is(err, ErrNoUser) {
			return errAnonymousLock
		}
		return errInternal("Failed to create new lock.", err)
	}

	// DAV has no slot for lock creation time; smuggle it out in a
	// custom response header so an svn-aware client can fill in
	// svn_lock_t->creation_date. A generic DAV client just ignores it.
	if db.ResponseHeader != nil {
		db.ResponseHeader.Set(HeaderCreationDate, rl.Created.UTC().Format(time.RFC3339Nano))
	}
	return nil
}

// RemoveLock removes the lock on resource, either the one named by
// token or, if token is nil, whatever lock currently sits on the path.
func (p *Provider) RemoveLock(db *DB, resource *Resource, token *Token) error {
	if resource.RepoPath == "" {
		return nil
	}

	readable, err := p.authorize(db, resource)
	if err != nil {
		return err
	}
	if !readable {
		return errUnreadable
	}

	tok := ""
	if token == nil {
		rl, err := p.Repo.GetLockByPath(db.Request.Context(), resource.RepoPath)
		if err != nil {
			return errInternal("Failed to check path for a lock.", err)
		}
		if rl == nil {
			return nil
		}
		tok = rl.Token
	} else {
		tok = token.UUID
	}

	who := RequestUser(db.Request)
	if err := p.Repo.Unlock(db.Request.Context(), tok, db.Force, who); err != nil {
		if errors.Is(err, ErrNoUser) {
			return errAnonymousUnlock
		}
		return errInternal("Failed to remove a lock.", err)
	}
	return nil
}

// RefreshLocks extends the expiration of an existing lock. Only the
// first token in the list is honored, per the single-lock invariant.
func (p *Provider) RefreshLocks(db *DB, resource *Resource, tokens []Token, newTime time.Time) ([]Lock, error) {
	if len(tokens) == 0 {
		return nil, errInternal("Token doesn't point to a lock.", nil)
	}
	token := tokens[0]

	readable, err := p.authorize(db, resource)
	if err != nil {
		return nil, err
	}
	if !readable {
		return nil, errUnreadable
	}

	rl, err := p.Repo.GetLockByToken(db.Request.Context(), token.UUID)
	if err != nil {
		return nil, errInternal("Token doesn't point to a lock.", err)
	}
	if rl == nil || resource.RepoPath == "" || rl.Path != resource.RepoPath {
		return nil, errRefreshMismatch
	}

	rl.Expires = expirationFromTimeout(newTime.Unix())

	// The lock is already ours: force=true overwrites it, and
	// working_revnum is invalid since a refresh performs no
	// out-of-dateness check.
	if err := p.Repo.AttachLock(db.Request.Context(), rl, true, InvalidRevnum); err != nil {
		if errors.Is(err, ErrNoUser) {
			return nil, errAnonymousRefresh
		}
		return nil, errInternal("Failed to refresh existing lock.", err)
	}

	out := RepoToDAV(rl, resource.Exists)
	return []Lock{out}, nil
}
