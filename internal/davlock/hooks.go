package davlock

import (
	"net/http"
	"time"
)

// Hooks is the 16-slot callback table registered with the host DAV
// module at load time: fourteen populated entry points plus two
// trailing extension slots, left nil here exactly as the source
// vtable leaves them NULL.
type Hooks struct {
	GetSupportedLock    func(isCollection bool) string
	ParseLockToken      func(raw string) (Token, error)
	FormatLockToken     func(t Token) string
	CompareLockToken    func(a, b Token) int
	// OpenLockDB builds the request-scoped lock database. The generic
	// mod_dav "force" argument (meaning "locking operations will
	// definitely occur, don't open lazily") has no effect on this
	// provider, which always does real work, so it is dropped rather
	// than threaded through unused.
	OpenLockDB  func(r *http.Request, readOnly bool, respHeader http.Header) *DB
	CloseLockDB func(db *DB)
	RemoveLockNullState func(db *DB, resource *Resource) error
	CreateLock          func(db *DB, resource *Resource) (*Lock, error)
	GetLocks            func(db *DB, resource *Resource) ([]Lock, error)
	FindLock            func(db *DB, resource *Resource, token Token) (*Lock, error)
	HasLocks            func(db *DB, resource *Resource) (bool, error)
	AppendLocks         func(db *DB, resource *Resource, locks []Lock) error
	RemoveLock          func(db *DB, resource *Resource, token *Token) error
	RefreshLocks        func(db *DB, resource *Resource, tokens []Token, newTime time.Time) ([]Lock, error)

	Ext1, Ext2 func()
}

// NewHooks wires p's methods into the fixed-order callback table the
// host DAV server expects.
func NewHooks(p *Provider) *Hooks {
	return &Hooks{
		GetSupportedLock:    p.GetSupportedLock,
		ParseLockToken:      func(raw string) (Token, error) { return ParseToken(raw) },
		FormatLockToken:     FormatToken,
		CompareLockToken:    CompareToken,
		OpenLockDB:          OpenLockDB,
		CloseLockDB:         CloseLockDB,
		RemoveLockNullState: p.RemoveLockNullState,
		CreateLock:          p.CreateLock,
		GetLocks:            p.GetLocks,
		FindLock:            p.FindLock,
		HasLocks:            p.HasLocks,
		AppendLocks:         p.AppendLocks,
		RemoveLock:          p.RemoveLock,
		RefreshLocks:        p.RefreshLocks,
	}
}
