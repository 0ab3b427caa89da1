package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionToken(t *testing.T) {
	var nilSession *Session
	require.Equal(t, "", nilSession.Token())

	s := &Session{AccessToken: "access", RefreshToken: "refresh"}
	require.Equal(t, "refresh", s.Token())
}
