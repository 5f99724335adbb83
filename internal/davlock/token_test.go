package davlock

import "testing"

func TestParseFormatRoundTrip(t *testing.T) {
	tok, err := ParseToken("opaquelocktoken:abc-123")
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if tok.UUID != "abc-123" {
		t.Fatalf("UUID = %q, want %q", tok.UUID, "abc-123")
	}
	if got := FormatToken(tok); got != "opaquelocktoken:abc-123" {
		t.Fatalf("FormatToken = %q, want %q", got, "opaquelocktoken:abc-123")
	}
}

func TestParseTokenRejectsUnknownScheme(t *testing.T) {
	_, err := ParseToken("something-else:xyz")
	if err == nil {
		t.Fatal("expected an error for a non-opaquelocktoken scheme")
	}
	derr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if derr.Status != 400 || derr.Code != "unknown-state-token" {
		t.Fatalf("got status=%d code=%q, want 400/unknown-state-token", derr.Status, derr.Code)
	}
}

func TestCompareToken(t *testing.T) {
	a := Token{UUID: "aaa"}
	b := Token{UUID: "bbb"}
	if CompareToken(a, b) >= 0 {
		t.Fatal("expected a < b")
	}
	if CompareToken(a, a) != 0 {
		t.Fatal("expected equal tokens to compare equal")
	}
	if CompareToken(b, a) <= 0 {
		t.Fatal("expected b > a")
	}
}

func TestFormatTokenNeverEmpty(t *testing.T) {
	if got := FormatToken(Token{}); got == "" {
		t.Fatal("FormatToken must never return an empty string")
	}
}
