package davlock

import (
	"context"
	"net/http"
)

// userContextKey is the context key an authentication middleware is
// expected to have set with the resolved principal, grounded on the
// same context.WithValue("username", ...) convention used elsewhere
// in this codebase's HTTP auth wrapping.
type userContextKey struct{}

// WithUser returns a copy of r whose context carries user as the
// authenticated principal, for middleware to attach ahead of the lock
// provider.
func WithUser(r *http.Request, user string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userContextKey{}, user))
}

// RequestUser recovers the authenticated principal from r, falling
// back to HTTP Basic credentials if no middleware has resolved one
// onto the request context. An empty return means anonymous.
func RequestUser(r *http.Request) string {
	if u, ok := r.Context().Value(userContextKey{}).(string); ok && u != "" {
		return u
	}
	if u, _, ok := r.BasicAuth(); ok {
		return u
	}
	return ""
}
