package davlock

import "strings"

// tokenPrefix is the literal, exactly-16-byte wire prefix for every
// lock token this provider emits or accepts.
const tokenPrefix = "opaquelocktoken:"

// ParseToken parses a token URI into a Token record. The input must
// begin with the literal "opaquelocktoken:" prefix; everything after
// it is taken as the UUID string verbatim, with no further syntactic
// validation.
func ParseToken(raw string) (Token, error) {
	if !strings.HasPrefix(raw, tokenPrefix) {
		return Token{}, errMalformedToken
	}
	return Token{UUID: raw[len(tokenPrefix):]}, nil
}

// FormatToken renders a Token back into its wire form. It never
// returns an empty string.
func FormatToken(t Token) string {
	return tokenPrefix + t.UUID
}

// CompareToken does a lexicographic byte comparison of the two
// tokens' UUID strings, for the host to dedupe tokens in an If header
// condition set.
func CompareToken(a, b Token) int {
	return strings.Compare(a.UUID, b.UUID)
}
