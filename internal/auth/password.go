// Package auth holds the credential rules of the application: the password
// strength predicate, its registration as a request-binding validation tag,
// and password hashing.
package auth

import (
	"regexp"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password IsPasswordAllowed accepts.
const MinPasswordLength = 7

// MaxPasswordBytes is the longest password, in bytes, that bcrypt can hash.
const MaxPasswordBytes = 72

var (
	lowerRE  = regexp.MustCompile(`[a-z]`)
	upperRE  = regexp.MustCompile(`[A-Z]`)
	digitRE  = regexp.MustCompile(`[0-9]`)
	symbolRE = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// IsPasswordAllowed reports whether password is strong enough to be stored.
//
// A password is allowed when it is at least MinPasswordLength characters long
// and contains a lowercase ASCII letter, an uppercase ASCII letter, a digit,
// and at least one character outside [A-Za-z0-9]. Length is counted in runes.
func IsPasswordAllowed(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength &&
		lowerRE.MatchString(password) &&
		upperRE.MatchString(password) &&
		digitRE.MatchString(password) &&
		symbolRE.MatchString(password)
}
