package users

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	MinUsernameLength = 3
)

var (
	ErrMissingFields    = errors.New("please fill in all fields")
	ErrPasswordMismatch = errors.New("passwords do not match")

	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)
)

// Registration holds the fields of the sign-up form
type Registration struct {
	Name            string
	Username        string
	Password        string
	ConfirmPassword string
}

// ValidateUsername allows letters, digits, underscore and period, with a
// minimum length.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength {
		return fmt.Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username can only contain letters, numbers, underscore and period")
	}
	return nil
}

// ValidateRegistration applies the sign-up form rules in the order the form
// reports them. Only the first failure is returned.
func ValidateRegistration(r Registration) error {
	if strings.TrimSpace(r.Name) == "" || r.Username == "" || r.Password == "" || r.ConfirmPassword == "" {
		return ErrMissingFields
	}
	if r.Password != r.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	return ValidatePasswordStrength(r.Password)
}
