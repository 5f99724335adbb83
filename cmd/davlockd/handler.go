package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3/log"

	"github.com/makebin200808/subversion/internal/davlock"
	"github.com/makebin200808/subversion/internal/reposfs"
)

// Method names this demo server recognizes, named the way the rest of
// this codebase's HTTP surfaces name their verb constants.
const (
	MethodLock    = "LOCK"
	MethodUnlock  = "UNLOCK"
	MethodOptions = "OPTIONS"
)

// Handler is a minimal net/http.Handler exposing only the lock surface
// of a DAV server: LOCK, UNLOCK and enough OPTIONS to let a generic
// client discover it; every other method gets 405. It deliberately does not serve file
// content — that is a different collaborator's job, out of scope here.
// It drives the CORE exclusively through the Hooks vtable rather than
// calling a Provider directly, the same way a host DAV module only
// ever sees the fixed-order callback table it registered.
type Handler struct {
	Hooks *davlock.Hooks
	Tree  *reposfs.Tree
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.Infof("davlockd %s %s", r.Method, r.URL.Path)
	switch r.Method {
	case MethodLock:
		h.handleLock(w, r)
	case MethodUnlock:
		h.handleUnlock(w, r)
	case MethodOptions:
		h.handleOptions(w, r)
	default:
		w.Header().Set("Allow", strings.Join([]string{MethodLock, MethodUnlock, MethodOptions}, ", "))
		http.Error(w, "method not supported by this lock-only server", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", strings.Join([]string{MethodLock, MethodUnlock, MethodOptions}, ", "))
	w.Header().Set("DAV", "1,2")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleLock(w http.ResponseWriter, r *http.Request) {
	timeoutSeconds, err := parseTimeoutHeader(r.Header.Get("Timeout"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	li, err := parseLockInfo(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resource, err := h.Tree.Resolve(r.Context(), r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	db := h.Hooks.OpenLockDB(r, false, w.Header())

	if li == nil {
		h.handleRefresh(w, r, db, resource, timeoutSeconds)
		return
	}

	created, err := h.Hooks.CreateLock(db, resource)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	created.Scope = davlock.ScopeExclusive
	created.Type = davlock.TypeWrite
	created.Owner = li.Owner.InnerXML
	created.AuthUser = davlock.RequestUser(r)
	created.Timeout = absoluteTimeout(timeoutSeconds)

	if err := h.Hooks.AppendLocks(db, resource, []davlock.Lock{*created}); err != nil {
		writeProviderError(w, err)
		return
	}

	if !resource.Exists {
		w.WriteHeader(http.StatusCreated)
	}
	writeLockDiscovery(w, h.Hooks.FormatLockToken(created.LockToken), created.Owner, timeoutSeconds, lockDepthString(created.Depth))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request, db *davlock.DB, resource *davlock.Resource, timeoutSeconds int64) {
	token, err := ifHeaderToken(r.Header.Get("If"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	newTime := time.Unix(0, 0)
	if timeoutSeconds > 0 {
		newTime = time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	}

	parsed, err := h.Hooks.ParseLockToken(token)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	locks, err := h.Hooks.RefreshLocks(db, resource, []davlock.Token{parsed}, newTime)
	if err != nil {
		writeProviderError(w, err)
		return
	}
	refreshed := locks[0]
	writeLockDiscovery(w, h.Hooks.FormatLockToken(refreshed.LockToken), refreshed.Owner, timeoutSeconds, lockDepthString(refreshed.Depth))
}

func (h *Handler) handleUnlock(w http.ResponseWriter, r *http.Request) {
	raw := r.Header.Get("Lock-Token")
	tokenStr, err := parseLockTokenHeader(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	token, err := h.Hooks.ParseLockToken(tokenStr)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	resource, err := h.Tree.Resolve(r.Context(), r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	db := h.Hooks.OpenLockDB(r, false, w.Header())
	if err := h.Hooks.RemoveLock(db, resource, &token); err != nil {
		writeProviderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// absoluteTimeout turns a relative Timeout-header duration into the
// absolute epoch-seconds form davlock.Lock.Timeout expects, preserving
// zero as "never expires".
func absoluteTimeout(relativeSeconds int64) int64 {
	if relativeSeconds <= 0 {
		return 0
	}
	return time.Now().Unix() + relativeSeconds
}

func lockDepthString(depth int) string {
	if depth != 0 {
		return "infinity"
	}
	return "0"
}

// ifHeaderToken extracts the single lock token out of a bare-bones
// RFC 4918 If header of the form "(<opaquelocktoken:...>)". Multi-list,
// multi-condition If headers are outside what this single-lock
// provider needs to understand.
func ifHeaderToken(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	start := strings.Index(raw, "<")
	end := strings.Index(raw, ">")
	if start < 0 || end < 0 || end < start {
		return "", errors.New("missing or malformed If header")
	}
	return raw[start+1 : end], nil
}

func writeProviderError(w http.ResponseWriter, err error) {
	var derr *davlock.Error
	if errors.As(err, &derr) {
		log.Warnf("davlockd: %s", derr.Error())
		http.Error(w, fmt.Sprintf("%s: %s", derr.Code, derr.Text), derr.Status)
		return
	}
	log.Errorf("davlockd: %s", err.Error())
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
