package intake

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidName  = errors.New("intake: invalid name")
	ErrInvalidEmail = errors.New("intake: invalid email")
	ErrInvalidPhone = errors.New("intake: invalid phone")
)

var (
	nameCharset   = regexp.MustCompile(`^[A-Za-z '\-]+$`)
	spaceCollapse = regexp.MustCompile(`\s+`)
	nonDigit      = regexp.MustCompile(`\D`)
)

// Placeholder names people type to get past the form.
var nameDenylist = map[string]struct{}{
	"test test": {},
	"asdf asdf": {},
	"john doe":  {},
	"jane doe":  {},
}

// ValidateName normalizes and checks a full name: collapsed whitespace, at
// least first and last name, letters/spaces/hyphens/apostrophes only, every
// part at least two characters, and not a known placeholder. Returns the
// normalized form.
func ValidateName(raw string) (string, error) {
	name := spaceCollapse.ReplaceAllString(strings.TrimSpace(raw), " ")
	if len(name) < 2 || !nameCharset.MatchString(name) {
		return "", ErrInvalidName
	}
	parts := strings.Split(name, " ")
	if len(parts) < 2 {
		return "", ErrInvalidName
	}
	for _, p := range parts {
		if len(p) < 2 {
			return "", ErrInvalidName
		}
	}
	if _, banned := nameDenylist[strings.ToLower(name)]; banned {
		return "", ErrInvalidName
	}
	return name, nil
}

// ValidateEmail applies the minimal shape check used across the intake flow.
func ValidateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// Sequences people type to get past the phone field.
var phoneDenylist = map[string]struct{}{
	"1234567890": {},
	"0987654321": {},
	"1111111111": {},
	"0000000000": {},
}

// ValidatePhone strips separators and checks the digit count (10-15, with
// Indian 91-prefixed numbers required to be exactly 12) and a short denylist
// of obvious test numbers. Returns a +-prefixed normalized form.
func ValidatePhone(raw string) (string, error) {
	digits := nonDigit.ReplaceAllString(strings.TrimSpace(raw), "")
	if len(digits) < 10 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	indian := strings.HasPrefix(digits, "91")
	if indian && len(digits) != 12 {
		return "", ErrInvalidPhone
	}
	if _, banned := phoneDenylist[digits[len(digits)-10:]]; banned {
		return "", ErrInvalidPhone
	}
	if indian {
		return "+" + digits[:2] + "-" + digits[2:7] + "-" + digits[7:], nil
	}
	return "+" + digits, nil
}
