// Package davlock bridges a generic DAV server's lock-management
// callback table to a versioned repository's native lock model. It is
// a stateless adapter: every exported method takes the per-request
// objects it needs and holds nothing between calls.
package davlock

import (
	"net/http"
	"time"
)

// LockScope mirrors mod_dav's DAV_LOCKSCOPE_* constants. Only
// exclusive locks are supported; shared locks are rejected at the
// translator boundary.
type LockScope int

const (
	ScopeUnknown LockScope = iota
	ScopeExclusive
)

// LockType mirrors mod_dav's DAV_LOCKTYPE_* constants. Only write
// locks are supported.
type LockType int

const (
	TypeUnknown LockType = iota
	TypeWrite
)

// RecType is always "direct" here: this provider has no concept of
// indirect (inherited) locks.
const RecTypeDirect = "direct"

// InvalidRevnum is the sentinel for "no working revision supplied",
// mirroring SVN_INVALID_REVNUM.
const InvalidRevnum int64 = -1

// TimeoutInfinite is the sentinel a translated DAV lock carries in its
// Timeout field when the underlying repository lock never expires,
// mirroring DAV_TIMEOUT_INFINITE. It is zero, the same value a caller
// sends on the way in to mean "never expires", so a never-expiring lock
// round-trips through the DAV<->repo translator unchanged.
const TimeoutInfinite int64 = 0

// Token is the lock-token record exchanged with the host. Its wire
// form is "opaquelocktoken:" + UUID; the UUID itself is opaque to this
// layer and is whatever the repository's GenerateToken returned.
type Token struct {
	UUID string
}

// Lock is the DAV-side lock record, populated/consumed by the
// translator. A translated record always carries Scope=ScopeExclusive,
// Type=TypeWrite, Depth=0, RecType=RecTypeDirect (see translate.go).
type Lock struct {
	RecType    string
	Scope      LockScope
	Type       LockType
	Depth      int
	IsLockNull bool
	LockToken  Token

	// Owner is the free-form "DAV:owner" XML body. It maps to the
	// repository lock's Comment field, NOT its Owner field — see the
	// field-name collision note in translate.go.
	Owner string

	// AuthUser is the authenticated principal who holds the lock. It
	// maps to the repository lock's Owner field.
	AuthUser string

	// Timeout is seconds-since-epoch in the host's convention; zero
	// (TimeoutInfinite) means infinite in both directions.
	Timeout int64
}

// RepoLock is the repository-native lock record: owned by the
// versioned filesystem, read and written here but never persisted by
// this package.
type RepoLock struct {
	Path    string
	Token   string
	Owner   string // authenticated principal that created the lock
	Comment string // free-form note; maps to Lock.Owner
	Created time.Time
	Expires time.Time // zero means never expires
}

// Resource describes the DAV resource a lock operation targets.
type Resource struct {
	// Exists reports whether the resource currently exists as a
	// versioned object. A lock on a non-existent resource is a
	// "locknull" resource per RFC 2518.
	Exists bool

	// RepoPath is the repository-absolute path backing this resource,
	// or "" if the resource has no such path (e.g. it lives outside
	// the versioned tree).
	RepoPath string
}

// DB is the request-scoped lock database built at OpenLockDB. It
// captures per-request policy extracted from custom SVN headers and
// carries the request handle so operations can emit response headers.
// It lives exactly as long as the request; CloseLockDB is a no-op.
type DB struct {
	// Force is true iff the client sent the SVN_DAV_OPTIONS header
	// with the literal substring "force", enabling lock-stealing.
	Force bool

	// WorkingRevnum is the revision from SVN_DAV_VERSION_NAME, or
	// InvalidRevnum if the header was absent.
	WorkingRevnum int64

	// Request is the inbound HTTP request, used to read headers and to
	// recover the authenticated principal.
	Request *http.Request

	// ResponseHeader is the outbound response header set, used only to
	// emit SVN_DAV_CREATIONDATE on a successful AppendLocks.
	ResponseHeader http.Header

	// ReadOnly is a passthrough of the host's "ro" argument to
	// OpenLockDB.
	ReadOnly bool
}
