package shell

import (
	"errors"

	"github.com/dmitrijs2005/fitcoach/internal/common"
)

// MessageFor turns an error from the session manager into the text shown
// next to the form that triggered it.
func MessageFor(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrInvalidCredentials):
		return "email or password is incorrect"
	case errors.Is(err, common.ErrNetworkUnavailable):
		return "could not reach the server, try again later"
	case errors.Is(err, common.ErrAccountAlreadyExists):
		return "an account with this email already exists"
	case errors.Is(err, common.ErrWeakCredentials):
		return "password is too weak"
	default:
		return "something went wrong, try again later"
	}
}
