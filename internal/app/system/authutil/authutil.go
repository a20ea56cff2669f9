// Package authutil holds password hashing and credential validation helpers.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLen is the shortest password accepted at registration.
	MinPasswordLen = 4
	// MaxPasswordLen is bcrypt's input limit.
	MaxPasswordLen = 72
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 4 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// HashPassword returns the bcrypt hash of plain.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether plain matches hash. An empty hash never
// matches.
func CheckPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidatePassword enforces the registration length rules.
func ValidatePassword(plain string) error {
	if len(strings.TrimSpace(plain)) < MinPasswordLen {
		return ErrPasswordTooShort
	}
	if len(plain) > MaxPasswordLen {
		return ErrPasswordTooLong
	}
	return nil
}

// IsValidEmail is a light structural check: one '@', a non-empty local part
// and a domain containing an interior dot.
func IsValidEmail(email string) bool {
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	dot := strings.Index(domain, ".")
	return dot > 0 && !strings.HasSuffix(domain, ".")
}
