package session

import "errors"

var (
	ErrAlreadyBootstrapped = errors.New("session manager already bootstrapped")
	ErrNotSignedIn         = errors.New("not signed in")
)
