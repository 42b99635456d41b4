package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("could not validate credentials")
	ErrWeakPassword       = errors.New("password is too weak")
)

// hashCost is lowered in tests.
var hashCost = bcrypt.DefaultCost

// WeakPasswordError names the first password rule that was not met.
type WeakPasswordError struct {
	Rule string
}

func (e *WeakPasswordError) Error() string {
	return "password must " + e.Rule
}

func (e *WeakPasswordError) Unwrap() error {
	return ErrWeakPassword
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), hashCost)
	if err != nil {
		return "", fmt.Errorf("couldn't hash password: %w", err)
	}
	return string(b), nil
}

func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CheckPasswordStrength enforces the password policy: at least MinPasswordLength characters with an uppercase
// letter, a lowercase letter, a digit and a symbol.
func CheckPasswordStrength(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return &WeakPasswordError{Rule: fmt.Sprintf("be at least %d characters", MinPasswordLength)}
	}

	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}

	switch {
	case !upper:
		return &WeakPasswordError{Rule: "contain at least one uppercase letter"}
	case !lower:
		return &WeakPasswordError{Rule: "contain at least one lowercase letter"}
	case !digit:
		return &WeakPasswordError{Rule: "contain at least one number"}
	case !symbol:
		return &WeakPasswordError{Rule: "contain at least one special character"}
	}
	return nil
}
