// Package validation holds field limits shared by the admin domains.
package validation

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MinPasswordLength    = 6
	MinRating            = 0
	MaxRating            = 5
	MinCodeLength        = 3
	MaxCodeLength        = 32
)

// TooLong reports whether value has more than limit characters.
func TooLong(value string, limit int) bool {
	return utf8.RuneCountInString(value) > limit
}

// IsEmail accepts a bare address with a dotted domain, e.g. "a@b.co".
func IsEmail(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || strings.ContainsAny(value, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}
	at := strings.LastIndex(value, "@")
	domain := value[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// IsCode accepts upper-case letters, digits, '-' and '_' within the code length limits.
func IsCode(value string) bool {
	n := utf8.RuneCountInString(value)
	if n < MinCodeLength || n > MaxCodeLength {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
