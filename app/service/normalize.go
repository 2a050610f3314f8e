package service

import "strings"

// NormalizeEmail canonicalizes an email address before comparison or
// storage: trimmed and lowercased across the whole address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims surrounding whitespace. Username comparison is
// otherwise exact.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
