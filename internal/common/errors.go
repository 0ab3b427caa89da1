// Package common defines shared constants and sentinel errors used across
// the client and server sides of fitcoach. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors.
	ErrInternal = errors.New("internal error")

	// Authentication taxonomy surfaced to the UI.
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrWeakCredentials      = errors.New("password does not meet the minimum policy")
	ErrNetworkUnavailable   = errors.New("identity backend unavailable")
	ErrUnexpected           = errors.New("unexpected error, try again later")

	// Token errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// IsAuthError reports whether err belongs to the user-facing taxonomy above
// (everything except ErrUnexpected and the internal errors).
func IsAuthError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrAccountAlreadyExists),
		errors.Is(err, ErrWeakCredentials),
		errors.Is(err, ErrNetworkUnavailable):
		return true
	}
	return false
}
