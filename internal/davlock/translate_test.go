package davlock

import "testing"

func TestRepoToDAVCarriesFixedFields(t *testing.T) {
	l := &RepoLock{Path: "/a/b", Token: "tok", Owner: "alice", Comment: "me"}
	out := RepoToDAV(l, true)

	if out.RecType != RecTypeDirect || out.Scope != ScopeExclusive || out.Type != TypeWrite || out.Depth != 0 {
		t.Fatalf("translated record has wrong fixed fields: %+v", out)
	}
	if !out.IsLockNull {
		t.Fatal("IsLockNull should mirror the exists argument")
	}
	// Field-name collision: DAV owner <- repo comment, DAV auth_user <- repo owner.
	if out.Owner != "me" {
		t.Fatalf("Owner = %q, want repo comment %q", out.Owner, "me")
	}
	if out.AuthUser != "alice" {
		t.Fatalf("AuthUser = %q, want repo owner %q", out.AuthUser, "alice")
	}
}

func TestRepoToDAVNeverExpires(t *testing.T) {
	l := &RepoLock{Path: "/a", Token: "t"}
	out := RepoToDAV(l, false)
	if out.Timeout != TimeoutInfinite {
		t.Fatalf("Timeout = %d, want TimeoutInfinite", out.Timeout)
	}
}

func TestExpirationRoundTripsOnMicrosecondMultiples(t *testing.T) {
	// 3600 seconds since epoch, a value whose microsecond form is an
	// exact multiple of 1,000,000 and therefore round-trips exactly.
	const timeoutSeconds int64 = 3600

	repoLock, err := DAVToRepo(&Lock{Type: TypeWrite, Scope: ScopeExclusive, Timeout: timeoutSeconds}, "/a")
	if err != nil {
		t.Fatalf("DAVToRepo: %v", err)
	}

	back := RepoToDAV(repoLock, true)
	if back.Timeout != timeoutSeconds {
		t.Fatalf("round-tripped timeout = %d, want %d", back.Timeout, timeoutSeconds)
	}
}

func TestDAVToRepoFieldSwap(t *testing.T) {
	l := &Lock{Type: TypeWrite, Scope: ScopeExclusive, Owner: "a comment", AuthUser: "bob", Timeout: 0}
	out, err := DAVToRepo(l, "/x/y")
	if err != nil {
		t.Fatalf("DAVToRepo: %v", err)
	}
	if out.Owner != "bob" {
		t.Fatalf("Owner = %q, want auth_user %q", out.Owner, "bob")
	}
	if out.Comment != "a comment" {
		t.Fatalf("Comment = %q, want DAV owner %q", out.Comment, "a comment")
	}
	if !out.Expires.IsZero() {
		t.Fatal("zero DAV timeout must mean never expires")
	}
	if out.Path != "/x/y" {
		t.Fatalf("Path = %q, want %q", out.Path, "/x/y")
	}
}

func TestDAVToRepoRejectsNonExclusiveScope(t *testing.T) {
	l := &Lock{Type: TypeWrite, Scope: ScopeUnknown}
	_, err := DAVToRepo(l, "/x")
	derr, ok := err.(*Error)
	if !ok || derr.Status != 400 || derr.Code != "save-lock" {
		t.Fatalf("got %#v, want 400/save-lock", err)
	}
}

func TestDAVToRepoRejectsNonWriteType(t *testing.T) {
	l := &Lock{Type: TypeUnknown, Scope: ScopeExclusive}
	_, err := DAVToRepo(l, "/x")
	derr, ok := err.(*Error)
	if !ok || derr.Status != 400 || derr.Code != "save-lock" {
		t.Fatalf("got %#v, want 400/save-lock", err)
	}
}
