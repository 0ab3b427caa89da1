package session

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/fitcoach/internal/client/identity"
	"github.com/dmitrijs2005/fitcoach/internal/client/kvstore"
)

// fakeBackend is a scriptable identity.Backend that also implements
// identity.Notifier.
type fakeBackend struct {
	authSession *identity.Session
	authErr     error

	createSession *identity.Session
	createErr     error
	lastMetadata  identity.Metadata

	currentSession *identity.Session
	currentErr     error
	lastToken      string

	invalidateErr   error
	invalidateCalls int

	user    *identity.User
	userErr error
	onGet   func()

	notify func(*identity.Session)
}

func (f *fakeBackend) Authenticate(context.Context, string, string) (*identity.Session, error) {
	return f.authSession, f.authErr
}

func (f *fakeBackend) CreateAccount(_ context.Context, _, _ string, md identity.Metadata) (*identity.Session, error) {
	f.lastMetadata = md
	return f.createSession, f.createErr
}

func (f *fakeBackend) CurrentSession(_ context.Context, token string) (*identity.Session, error) {
	f.lastToken = token
	return f.currentSession, f.currentErr
}

func (f *fakeBackend) InvalidateSession(context.Context, *identity.Session) error {
	f.invalidateCalls++
	return f.invalidateErr
}

func (f *fakeBackend) GetUser(context.Context, *identity.Session) (*identity.User, error) {
	if f.onGet != nil {
		f.onGet()
	}
	return f.user, f.userErr
}

func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) OnSessionChange(fn func(*identity.Session)) {
	f.notify = fn
}

// failingStore fails every operation.
type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) Get(context.Context, string) (string, bool, error) { return "", false, errStore }
func (failingStore) Set(context.Context, string, string) error         { return errStore }
func (failingStore) Remove(context.Context, string) error              { return errStore }
func (failingStore) Close() error                                      { return nil }

var _ kvstore.Store = failingStore{}

func testSession(token, email string, md identity.Metadata) *identity.Session {
	return &identity.Session{
		AccessToken:  "access-" + token,
		RefreshToken: token,
		User:         identity.User{ID: "u-" + email, Email: email, Metadata: md},
	}
}
