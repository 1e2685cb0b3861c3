package identity

import "strings"

// NormalizeUsername canonicalizes a username for storage and lookup.
// Usernames are upper-cased so the users table needs no functional index for
// case-insensitive matches; the same normalization must be applied at write
// and read time.
func NormalizeUsername(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeEmail canonicalizes an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
