// Package redisrepo is a Redis-backed davlock.Repository. It mirrors
// the key-prefix and per-path hash layout of the reference Redis lock
// store this codebase has used for WebDAV before, trimmed down to the
// single-lock-per-path invariant this provider enforces: no ref
// counting up a directory tree, no "held" flag for in-flight I/O, just
// one hash per locked path and a reverse token index.
package redisrepo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/garyburd/redigo/redis"
	"github.com/google/uuid"

	"github.com/makebin200808/subversion/internal/davlock"
)

const (
	pathPrefix  = "n:"
	tokenPrefix = "t:"
	revisionKey = "rev"

	fieldToken   = "token"
	fieldOwner   = "owner"
	fieldComment = "comment"
	fieldCreated = "created"
	fieldExpires = "expires"
)

// Repo is a Repository backed by a Redis connection pool. Every method
// borrows a connection from the pool and returns it before returning,
// the same discipline the reference Redis lock store uses.
type Repo struct {
	pool   *redis.Pool
	prefix string
}

// New returns a Repo storing its keys under prefix (e.g. "davlock:"),
// using pool for connections.
func New(pool *redis.Pool, prefix string) *Repo {
	return &Repo{pool: pool, prefix: prefix}
}

func (r *Repo) pathKey(path string) string  { return r.prefix + pathPrefix + path }
func (r *Repo) tokenKey(token string) string { return r.prefix + tokenPrefix + token }
func (r *Repo) revKey() string               { return r.prefix + revisionKey }

func (r *Repo) YoungestRevision(ctx context.Context) (int64, error) {
	conn := r.pool.Get()
	defer conn.Close()

	n, err := redis.Int64(conn.Do("GET", r.revKey()))
	if err == redis.ErrNil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

// BumpRevision advances the stored revision counter by one, for a
// caller to invoke as part of its own commit pipeline.
func (r *Repo) BumpRevision(ctx context.Context) (int64, error) {
	conn := r.pool.Get()
	defer conn.Close()
	return redis.Int64(conn.Do("INCR", r.revKey()))
}

func (r *Repo) GetLockByPath(ctx context.Context, path string) (*davlock.RepoLock, error) {
	conn := r.pool.Get()
	defer conn.Close()
	return r.getByPath(conn, path)
}

func (r *Repo) getByPath(conn redis.Conn, path string) (*davlock.RepoLock, error) {
	vals, err := redis.StringMap(conn.Do("HGETALL", r.pathKey(path)))
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}

	l := &davlock.RepoLock{
		Path:    path,
		Token:   vals[fieldToken],
		Owner:   vals[fieldOwner],
		Comment: vals[fieldComment],
	}
	if created, err := strconv.ParseInt(vals[fieldCreated], 10, 64); err == nil {
		l.Created = time.Unix(0, created)
	}
	if expires, err := strconv.ParseInt(vals[fieldExpires], 10, 64); err == nil && expires != 0 {
		l.Expires = time.Unix(0, expires)
	}

	if !l.Expires.IsZero() && time.Now().After(l.Expires) {
		if err := r.remove(conn, l); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return l, nil
}

func (r *Repo) GetLockByToken(ctx context.Context, token string) (*davlock.RepoLock, error) {
	conn := r.pool.Get()
	defer conn.Close()

	path, err := redis.String(conn.Do("GET", r.tokenKey(token)))
	if err == redis.ErrNil {
		return nil, davlock.ErrBadLockToken
	}
	if err != nil {
		return nil, err
	}

	l, err := r.getByPath(conn, path)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, davlock.ErrLockExpired
	}
	return l, nil
}

func (r *Repo) GenerateToken(ctx context.Context) (string, error) {
	return uuid.NewString(), nil
}

// maxAttachRetries bounds the WATCH/MULTI/EXEC retry loop in AttachLock.
// Contention on a single path's key is expected to be rare (it only
// happens when two clients race to lock the same path at the same
// instant), so a small bound is enough to absorb that without risking
// an unbounded retry storm under pathological contention.
const maxAttachRetries = 10

// AttachLock installs lock as the sole lock on its path. The non-force
// path wraps the "is it already locked / is the working rev current"
// check and the HMSET/SET that installs the lock in a WATCH/MULTI/EXEC
// transaction, the same optimistic-locking pattern the Koofr Redis lock
// store uses: EXEC returns a nil reply if another client modified the
// watched path key in between, in which case the check is retried from
// scratch rather than risking two non-force callers both installing a
// lock on the same path.
func (r *Repo) AttachLock(ctx context.Context, lock *davlock.RepoLock, force bool, workingRevnum int64) error {
	if lock.Owner == "" {
		return davlock.ErrNoUser
	}

	conn := r.pool.Get()
	defer conn.Close()

	if force {
		if existing, err := r.getByPath(conn, lock.Path); err == nil && existing != nil {
			conn.Do("DEL", r.tokenKey(existing.Token))
		}
		return r.installLock(conn, lock)
	}

	for attempt := 0; attempt < maxAttachRetries; attempt++ {
		if _, err := conn.Do("WATCH", r.pathKey(lock.Path)); err != nil {
			return err
		}

		existing, err := r.getByPath(conn, lock.Path)
		if err != nil {
			conn.Do("UNWATCH")
			return err
		}
		if existing != nil {
			conn.Do("UNWATCH")
			return fmt.Errorf("path %q is already locked", lock.Path)
		}
		if workingRevnum != davlock.InvalidRevnum {
			rev, err := redis.Int64(conn.Do("GET", r.revKey()))
			if err != nil && err != redis.ErrNil {
				conn.Do("UNWATCH")
				return err
			}
			if workingRevnum < rev {
				conn.Do("UNWATCH")
				return fmt.Errorf("working revision %d is out of date against %d", workingRevnum, rev)
			}
		}

		committed, err := r.tryInstallLock(conn, lock)
		if err != nil {
			return err
		}
		if committed {
			return nil
		}
		// another client changed the path key between WATCH and EXEC; retry the check.
	}
	return fmt.Errorf("path %q: too much contention attaching lock", lock.Path)
}

// installLock writes lock unconditionally, for the force path where no
// concurrent-check race matters: force is defined to win regardless.
func (r *Repo) installLock(conn redis.Conn, lock *davlock.RepoLock) error {
	created, expires := lockTimestamps(lock)
	if _, err := conn.Do("HMSET", r.pathKey(lock.Path),
		fieldToken, lock.Token,
		fieldOwner, lock.Owner,
		fieldComment, lock.Comment,
		fieldCreated, created,
		fieldExpires, expires,
	); err != nil {
		return err
	}
	_, err := conn.Do("SET", r.tokenKey(lock.Token), lock.Path)
	return err
}

// tryInstallLock queues the same writes as installLock inside a
// MULTI/EXEC block guarded by the conn's current WATCH. It reports
// committed=false, rather than an error, when EXEC aborts because the
// watched key changed.
func (r *Repo) tryInstallLock(conn redis.Conn, lock *davlock.RepoLock) (committed bool, err error) {
	created, expires := lockTimestamps(lock)

	if err := conn.Send("MULTI"); err != nil {
		return false, err
	}
	conn.Send("HMSET", r.pathKey(lock.Path),
		fieldToken, lock.Token,
		fieldOwner, lock.Owner,
		fieldComment, lock.Comment,
		fieldCreated, created,
		fieldExpires, expires,
	)
	conn.Send("SET", r.tokenKey(lock.Token), lock.Path)

	reply, err := conn.Do("EXEC")
	if err != nil {
		return false, err
	}
	return reply != nil, nil
}

func lockTimestamps(lock *davlock.RepoLock) (created, expires int64) {
	c := lock.Created
	if c.IsZero() {
		c = time.Now()
	}
	created = c.UnixNano()
	if !lock.Expires.IsZero() {
		expires = lock.Expires.UnixNano()
	}
	return created, expires
}

func (r *Repo) Unlock(ctx context.Context, token string, force bool, who string) error {
	if who == "" {
		return davlock.ErrNoUser
	}

	conn := r.pool.Get()
	defer conn.Close()

	path, err := redis.String(conn.Do("GET", r.tokenKey(token)))
	if err == redis.ErrNil {
		return nil
	}
	if err != nil {
		return err
	}

	l, err := r.getByPath(conn, path)
	if err != nil {
		return err
	}
	if l == nil {
		return nil
	}
	if !force && l.Owner != who {
		return fmt.Errorf("lock on %q is owned by %q, not %q", path, l.Owner, who)
	}
	return r.remove(conn, l)
}

func (r *Repo) remove(conn redis.Conn, l *davlock.RepoLock) error {
	if _, err := conn.Do("DEL", r.tokenKey(l.Token)); err != nil {
		return err
	}
	_, err := conn.Do("DEL", r.pathKey(l.Path))
	return err
}
