package shell

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Range bounds checked before registering.
const (
	MinHeight       = 100.0
	MaxHeight       = 250.0
	MinWeight       = 30.0
	MaxWeight       = 250.0
	MinTargetWeight = 20.0
	MaxTargetWeight = 300.0

	MinPasswordLength = 8
)

var (
	errRequired   = errors.New("required")
	errNotANumber = errors.New("numbers only")
)

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is %w", errRequired)
	}
	if !emailRe.MatchString(email) {
		return errors.New("email format is not valid")
	}
	return nil
}

// ValidatePassword requires at least MinPasswordLength characters with a
// latin letter and a digit.
func ValidatePassword(pw string) error {
	if pw == "" {
		return fmt.Errorf("password is %w", errRequired)
	}

	var letter, digit bool
	for _, r := range pw {
		switch {
		case r <= unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if len(pw) < MinPasswordLength || !letter || !digit {
		return fmt.Errorf("use at least %d characters with letters and numbers", MinPasswordLength)
	}
	return nil
}

// ParseMeasurement parses an optional number. An empty string yields nil.
// A decimal comma is accepted.
func ParseMeasurement(field, s string, lo, hi float64, unit string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, errNotANumber)
	}
	if v < lo || v > hi {
		return nil, fmt.Errorf("%s must be between %g and %g %s", field, lo, hi, unit)
	}
	return &v, nil
}
