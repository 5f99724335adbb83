package main

import (
	"net/http"

	"github.com/makebin200808/subversion/internal/davlock"
)

// remoteUserHeader names the caller as already authenticated by a
// trusted front door (a reverse proxy terminating its own auth). When
// present it takes precedence over HTTP Basic credentials.
const remoteUserHeader = "X-Remote-User"

// withAuth resolves the request's principal once, up front, and
// attaches it via davlock.WithUser — the host-side half of the
// middleware/provider split RequestUser's doc comment describes.
// Everything downstream (davlock.RequestUser, and therefore the whole
// CORE) reads the principal back off the request context rather than
// re-deriving it from headers itself.
func withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := r.Header.Get(remoteUserHeader); user != "" {
			next.ServeHTTP(w, davlock.WithUser(r, user))
			return
		}
		if user, _, ok := r.BasicAuth(); ok {
			next.ServeHTTP(w, davlock.WithUser(r, user))
			return
		}
		next.ServeHTTP(w, r)
	})
}
