package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidEmail         = errors.New("invalid email")
	ErrInvalidUsername      = errors.New("invalid username")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrInvalidAccountNumber = errors.New("invalid account number")
	ErrInvalidOwnerScope    = errors.New("invalid owner scope")
)

var (
	emailRegex         = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernameRegex      = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	accountNumberRegex = regexp.MustCompile(`^[0-9]{6,24}$`)
)

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateAccountNumber(accountNumber string) error {
	if !accountNumberRegex.MatchString(accountNumber) {
		return ErrInvalidAccountNumber
	}
	return nil
}

// Owner scope is either "platform" or "community:<id>".
func ValidateOwnerScope(scope string) error {
	if scope == "platform" {
		return nil
	}
	if id, ok := strings.CutPrefix(scope, "community:"); ok && id != "" {
		return nil
	}
	return ErrInvalidOwnerScope
}
