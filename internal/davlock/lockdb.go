package davlock

import (
	"net/http"
	"strconv"
	"strings"
)

// Custom request headers a subversion-aware client may send, and the
// one custom response header this package ever writes. Exact spelling
// is load-bearing: these are what the client and server agree on.
const (
	HeaderOptions      = "SVN_DAV_OPTIONS"
	HeaderVersionName  = "SVN_DAV_VERSION_NAME"
	HeaderCreationDate = "SVN_DAV_CREATIONDATE"
)

// optionForce is the literal substring of HeaderOptions that enables
// lock-stealing / force-break.
const optionForce = "force"

// OpenLockDB builds the request-scoped lock database. readOnly is a
// passthrough of the host's "ro" argument, and respHeader is the
// response header set the host will eventually flush — the only
// output channel this package ever writes to directly. The returned
// DB carries force/working-revnum policy read off the request's custom
// headers and lives exactly as long as the request.
func OpenLockDB(r *http.Request, readOnly bool, respHeader http.Header) *DB {
	db := &DB{
		Request:        r,
		ResponseHeader: respHeader,
		ReadOnly:       readOnly,
		WorkingRevnum:  InvalidRevnum,
	}

	if opts := r.Header.Get(HeaderOptions); strings.Contains(opts, optionForce) {
		db.Force = true
	}

	if vn := r.Header.Get(HeaderVersionName); vn != "" {
		if rev, err := strconv.ParseInt(vn, 10, 64); err == nil {
			db.WorkingRevnum = rev
		}
	}

	return db
}

// CloseLockDB is a no-op: no persistent resources were acquired by
// OpenLockDB, since all locks live in the repository filesystem
// itself rather than in a separate lock database file.
func CloseLockDB(db *DB) {}
