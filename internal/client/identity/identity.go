// Package identity defines the capability a session manager needs from an
// identity provider, independent of whether that provider is a hosted
// service or a local emulation.
package identity

import (
	"context"
	"time"
)

// Metadata is the free-form profile data attached to an account at creation
// time. Values are returned verbatim by later reads.
type Metadata map[string]any

// User is the backend's record of an account.
type User struct {
	ID       string
	Email    string
	Metadata Metadata
}

// Session is proof of a successful authentication. Callers outside the
// backend treat it as opaque.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Token is the value to persist in order to resume the session later.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	return s.RefreshToken
}

// Backend is an identity provider.
type Backend interface {
	Authenticate(ctx context.Context, email, password string) (*Session, error)
	CreateAccount(ctx context.Context, email, password string, md Metadata) (*Session, error)
	// CurrentSession resumes a session from a persisted token. It returns
	// (nil, nil) when the token is no longer valid.
	CurrentSession(ctx context.Context, token string) (*Session, error)
	InvalidateSession(ctx context.Context, s *Session) error
	GetUser(ctx context.Context, s *Session) (*User, error)
	Close() error
}

// Notifier is implemented by backends that can change the session on their
// own, e.g. by rotating tokens. The callback receives the replacement
// session, or nil once the session has been invalidated.
type Notifier interface {
	OnSessionChange(fn func(*Session))
}
