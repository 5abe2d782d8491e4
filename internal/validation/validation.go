// Package validation provides input validation utilities to prevent
// command injection and other input-based attacks before values reach
// external tools.
package validation

import (
	"errors"
	"fmt"
	"regexp"
)

// Common validation errors.
var (
	ErrEmptyInput         = errors.New("input cannot be empty")
	ErrInvalidPackageName = errors.New("invalid package name")
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidShareName   = errors.New("invalid share name")
	ErrInvalidUnitName    = errors.New("invalid service unit name")
	ErrInvalidTimezone    = errors.New("invalid timezone name")
)

// Compiled regex patterns for validation.
var (
	// packageNameRegex matches valid package names: alphanumeric, hyphens,
	// underscores, dots, plus. Examples: "git", "lib32gcc-s1", "g++"
	packageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

	// usernameRegex matches conservative POSIX usernames.
	usernameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_-]*$`)

	// shareNameRegex matches Samba share names.
	shareNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 ._-]*$`)

	// unitNameRegex matches systemd unit base names (no suffix).
	unitNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9@._-]*$`)

	// timezoneRegex matches IANA timezone names. Examples:
	// "Europe/Berlin", "UTC", "America/New_York"
	timezoneRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+_-]*(?:/[A-Za-z0-9+_-]+)*$`)
)

// ValidatePackageName checks a package name for injection-safe characters.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidPackageName, name)
	}
	return nil
}

// ValidateUsername checks a service account name.
func ValidateUsername(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 32 || !usernameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, name)
	}
	return nil
}

// ValidateShareName checks a file share name.
func ValidateShareName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if !shareNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidShareName, name)
	}
	return nil
}

// ValidateUnitName checks a supervisor unit base name.
func ValidateUnitName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if !unitNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidUnitName, name)
	}
	return nil
}

// ValidateTimezone checks an IANA timezone name.
func ValidateTimezone(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if !timezoneRegex.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return nil
}
