package davlock

import "time"

// microsPerSecond is the unit-crossing factor between the repository's
// microsecond expiration dates and the DAV layer's seconds-based
// timeout. Every crossing multiplies or divides by it.
const microsPerSecond = 1_000_000

// RepoToDAV translates a repository lock record into a DAV lock
// record. exists indicates whether the resource the lock is attached
// to currently exists as a versioned object; it becomes IsLockNull,
// which is confusingly named from the DAV side — true here means the
// resource IS present, not that it is locknull. See the field-name
// note below for the matching owner/comment swap.
func RepoToDAV(l *RepoLock, exists bool) Lock {
	out := Lock{
		RecType:    RecTypeDirect,
		Scope:      ScopeExclusive,
		Type:       TypeWrite,
		Depth:      0,
		IsLockNull: exists,
		LockToken:  Token{UUID: l.Token},
		// DAV:owner is a free-form comment; the repository's Comment
		// field is exactly that. Not a typo: repo.Owner goes to
		// AuthUser below.
		Owner:    l.Comment,
		AuthUser: l.Owner,
	}
	if !l.Expires.IsZero() {
		out.Timeout = l.Expires.UnixMicro() / microsPerSecond
	} else {
		out.Timeout = TimeoutInfinite
	}
	return out
}

// expirationFromTimeout converts a DAV timeout (seconds-since-epoch,
// host convention) into the repository's absolute expiration instant.
// A zero timeout means "never expires" and returns the zero Time.
func expirationFromTimeout(timeout int64) time.Time {
	if timeout == 0 {
		return time.Time{}
	}
	return time.UnixMicro(timeout * microsPerSecond)
}

// DAVToRepo translates a DAV lock record destined for path into a
// repository lock record. It rejects anything but exclusive write
// locks, per the single-lock-model invariant this provider enforces.
func DAVToRepo(l *Lock, path string) (*RepoLock, error) {
	if l.Type != TypeWrite {
		return nil, errUnsupportedType
	}
	if l.Scope != ScopeExclusive {
		return nil, errUnsupportedScope
	}

	out := &RepoLock{
		Path:    path,
		Token:   l.LockToken.UUID,
		Created: now(),
	}
	if l.AuthUser != "" {
		out.Owner = l.AuthUser
	}
	if l.Owner != "" {
		out.Comment = l.Owner
	}
	out.Expires = expirationFromTimeout(l.Timeout)
	return out, nil
}

// now is a seam for tests that need a fixed creation time.
var now = time.Now
