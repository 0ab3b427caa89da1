package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	require.Len(t, key1, 32)
	if !bytes.Equal(key1, key2) {
		t.Fatalf("expected same result for same inputs")
	}
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	assert.NotEqual(t, DeriveKey(password, []byte("salt-1")), DeriveKey(password, []byte("salt-2")))
}

func TestCheckVerifier(t *testing.T) {
	salt := NewSalt()
	require.Len(t, salt, SaltSize)

	verifier := MakeVerifier(DeriveKey([]byte("p4ssword"), salt))

	assert.True(t, CheckVerifier([]byte("p4ssword"), salt, verifier))
	assert.False(t, CheckVerifier([]byte("wrong-password"), salt, verifier))
	assert.False(t, CheckVerifier([]byte("p4ssword"), NewSalt(), verifier))
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("p4ssword")
	require.NoError(t, err)
	assert.NotEqual(t, "p4ssword", hash)

	ok, err := CheckPassword(hash, "p4ssword")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	ok, err := CheckPassword("not-a-bcrypt-hash", "p4ssword")
	require.Error(t, err)
	assert.False(t, ok)
}
