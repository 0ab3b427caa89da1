package shell

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("  hello  \nnext\n"))

	s, err := GetSimpleText(r, "Say something", &out)
	require.NoError(t, err)
	require.Equal(t, "hello", s)
	require.Equal(t, "Say something\n> ", out.String())
}

func TestGetSimpleText_PartialLineAtEOF(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("tail"))

	s, err := GetSimpleText(r, "p", &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, "tail", s)

	_, err = GetSimpleText(r, "p", &bytes.Buffer{})
	require.Error(t, err)
}

func TestGetPassword_Terminal(t *testing.T) {
	origTerm, origRead := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = origTerm, origRead })

	isTerminal = func(int) bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }

	var out bytes.Buffer
	pw, err := GetPassword(bufio.NewReader(strings.NewReader("")), &out)
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), pw)
	require.Equal(t, "Enter password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("tty gone") }
	_, err = GetPassword(bufio.NewReader(strings.NewReader("")), &bytes.Buffer{})
	require.ErrorContains(t, err, "tty gone")
}

func TestGetPassword_Piped(t *testing.T) {
	stubTerminal(t)

	pw, err := GetPassword(bufio.NewReader(strings.NewReader("p4ssword\n")), &bytes.Buffer{})
	require.NoError(t, err)
	require.Equal(t, []byte("p4ssword"), pw)
}

func TestGetYesNo(t *testing.T) {
	for input, want := range map[string]bool{"y": true, "YES": true, "n": false, "": false, "maybe": false} {
		ok, err := GetYesNo(bufio.NewReader(strings.NewReader(input+"\n")), "Remember?", &bytes.Buffer{})
		require.NoError(t, err)
		require.Equal(t, want, ok, input)
	}
}
