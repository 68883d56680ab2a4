package validation

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"
)

var (
	ErrEmptyDescription = errors.New("description must not be empty")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrShortPassword    = errors.New("password must be at least 6 characters")
	ErrInvalidTCKN      = errors.New("tc kimlik no must be 11 digits")
	ErrInvalidTaxID     = errors.New("tax id must be 10 digits")
)

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// SanitizeDescription trims and strips a free-text description, returning
// ErrEmptyDescription when nothing printable remains.
func SanitizeDescription(s string) (string, error) {
	cleaned := strings.TrimSpace(StripUnprintable(s))
	if cleaned == "" {
		return "", ErrEmptyDescription
	}
	return cleaned, nil
}

// ValidateEmail checks the address with net/mail's parser.
func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum credential length used by the signup form.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return ErrShortPassword
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ValidateTCKN checks the national id shape. Empty is allowed; the wizard may
// defer collecting it until the petition step.
func ValidateTCKN(tckn string) error {
	if tckn == "" {
		return nil
	}
	if len(tckn) != 11 || !allDigits(tckn) {
		return ErrInvalidTCKN
	}
	return nil
}

// ValidateTaxID checks the tax id shape. Empty is allowed for the same reason.
func ValidateTaxID(taxID string) error {
	if taxID == "" {
		return nil
	}
	if len(taxID) != 10 || !allDigits(taxID) {
		return ErrInvalidTaxID
	}
	return nil
}
