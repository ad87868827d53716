package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// 20-byte hex address with 0x prefix, case-insensitive.
var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Lot codes are short human-readable identifiers like BR-MG-2024-001:
// uppercase letters, digits and hyphens.
var lotCodeRe = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-]{1,63}$`)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidAddress reports whether s is a well-formed wallet address.
func IsValidAddress(s string) bool {
	return addressRe.MatchString(s)
}

// NormalizeAddress lowercases a wallet address so the same wallet never
// appears under two spellings in storage.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValidLotCode reports whether s is an acceptable lot code.
func IsValidLotCode(s string) bool {
	return lotCodeRe.MatchString(s)
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// IsValidPassword requires at least 8 characters with a letter, a number
// and a special character.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter, hasDigit, hasSpecial := false, false, false
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	return hasLetter && hasDigit && hasSpecial
}
