package davlock

import (
	"context"
	"net/http"
)

// authorize resolves the youngest revision, then asks authzRead
// whether path is readable by the request's principal as of that
// revision. It runs on every lock-observing and lock-mutating
// operation so that the presence or absence of a lock is never leaked
// for an unreadable path.
func authorize(ctx context.Context, repo Repository, authzRead AuthzReadFunc, r *http.Request, path string) (bool, error) {
	rev, err := repo.YoungestRevision(ctx)
	if err != nil {
		return false, errInternal("Failed to get youngest filesystem revision.", err)
	}

	ok, err := authzRead(ctx, rev, path, r)
	if err != nil {
		return false, errInternal("Failed to check readability of a path.", err)
	}
	return ok, nil
}
