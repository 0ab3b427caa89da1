package session

import "github.com/dmitrijs2005/fitcoach/internal/client/identity"

type Status int

const (
	StatusBooting Status = iota
	StatusSignedOut
	StatusSignedIn
)

func (s Status) String() string {
	switch s {
	case StatusBooting:
		return "booting"
	case StatusSignedOut:
		return "signed out"
	case StatusSignedIn:
		return "signed in"
	default:
		return "unknown"
	}
}

// State is a snapshot of the manager. Session and Profile are either both
// nil or both set. The pointed-to values are never modified after they are
// published, so a snapshot may be kept and read freely.
type State struct {
	BootLoading bool
	Session     *identity.Session
	Profile     *Profile
}

func (s State) Status() Status {
	switch {
	case s.BootLoading:
		return StatusBooting
	case s.Session != nil:
		return StatusSignedIn
	default:
		return StatusSignedOut
	}
}

// Listener receives the state after every change.
type Listener func(State)
