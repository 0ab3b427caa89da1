// Package session owns the sign-in state of the fitcoach client.
//
// A Manager restores a remembered session at startup (Bootstrap), signs users
// in, registers and signs them out, and tells subscribers about every change.
// It is the only writer of that state; UI code reads snapshots through State
// and Subscribe.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/fitcoach/internal/client/identity"
	"github.com/dmitrijs2005/fitcoach/internal/client/kvstore"
	"github.com/dmitrijs2005/fitcoach/internal/common"
	"github.com/dmitrijs2005/fitcoach/internal/logging"
)

// Default store keys.
const (
	RememberKey = "auth:remember"
	SessionKey  = "auth:session"
)

type Option func(*Manager)

// WithKeys overrides the store keys of the remember flag and the session
// token.
func WithKeys(rememberKey, sessionKey string) Option {
	return func(m *Manager) {
		m.rememberKey = rememberKey
		m.sessionKey = sessionKey
	}
}

type subscription struct {
	id int
	fn Listener
}

type Manager struct {
	backend identity.Backend
	store   kvstore.Store
	logger  logging.Logger

	rememberKey string
	sessionKey  string

	mu           sync.Mutex
	state        State
	remember     bool
	bootstrapped bool
	subs         []subscription
	nextID       int

	booted chan struct{}
}

func New(backend identity.Backend, store kvstore.Store, logger logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		backend:     backend,
		store:       store,
		logger:      logger.With("module", "session"),
		rememberKey: RememberKey,
		sessionKey:  SessionKey,
		state:       State{BootLoading: true},
		booted:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for every later state change. Listeners run
// synchronously, in registration order, after the change is committed.
func (m *Manager) Subscribe(fn Listener) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs = append(m.subs, subscription{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, s := range m.subs {
				if s.id == id {
					m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// WaitBooted blocks until Bootstrap has finished.
func (m *Manager) WaitBooted(ctx context.Context) error {
	select {
	case <-m.booted:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Bootstrap restores a remembered session. It runs once per Manager; any
// failure to restore leaves the user signed out and is not returned.
func (m *Manager) Bootstrap(ctx context.Context) error {
	m.mu.Lock()
	if m.bootstrapped {
		m.mu.Unlock()
		return ErrAlreadyBootstrapped
	}
	m.bootstrapped = true
	m.mu.Unlock()

	if n, ok := m.backend.(identity.Notifier); ok {
		n.OnSessionChange(m.onBackendChange)
	}

	sess := m.restore(ctx)

	m.commit(func(st *State) bool {
		st.BootLoading = false
		if sess != nil {
			m.remember = true
			setSignedIn(st, sess)
		}
		return true
	})

	if sess != nil {
		m.logger.Info(ctx, "session restored", "email", sess.User.Email)
	}
	return nil
}

func (m *Manager) restore(ctx context.Context) *identity.Session {
	remember, _, err := m.store.Get(ctx, m.rememberKey)
	if err != nil {
		m.logger.Warn(ctx, "failed to read remember flag", "error", err)
		return nil
	}
	if remember != "true" {
		return nil
	}

	token, found, err := m.store.Get(ctx, m.sessionKey)
	if err != nil {
		m.logger.Warn(ctx, "failed to read session token", "error", err)
		return nil
	}
	if !found || token == "" {
		return nil
	}

	sess, err := m.backend.CurrentSession(ctx, token)
	if err != nil {
		m.logger.Warn(ctx, "failed to restore session", "error", err)
		return nil
	}
	if sess == nil {
		m.logger.Info(ctx, "remembered session is no longer valid")
		m.removeKey(ctx, m.sessionKey)
		return nil
	}

	if sess.Token() != token {
		m.setKey(ctx, m.sessionKey, sess.Token())
	}
	return sess
}

// SignIn authenticates and, when remember is set, persists the session so
// the next Bootstrap restores it.
func (m *Manager) SignIn(ctx context.Context, email, password string, remember bool) error {
	sess, err := m.backend.Authenticate(ctx, email, password)
	if err != nil {
		return wrapError(err)
	}
	if sess == nil {
		return fmt.Errorf("%w: backend returned no session", common.ErrUnexpected)
	}

	m.establish(ctx, sess, remember)
	m.logger.Info(ctx, "signed in", "email", sess.User.Email, "remember", remember)
	return nil
}

// Register creates an account from d and signs it in. The optional fields of
// d are stored as account metadata as given.
func (m *Manager) Register(ctx context.Context, d Draft, remember bool) error {
	sess, err := m.backend.CreateAccount(ctx, d.Email, d.Password, d.Metadata())
	if err != nil {
		return wrapError(err)
	}
	if sess == nil {
		return fmt.Errorf("%w: backend returned no session", common.ErrUnexpected)
	}

	m.establish(ctx, sess, remember)
	m.logger.Info(ctx, "registered", "email", sess.User.Email, "remember", remember)
	return nil
}

func (m *Manager) establish(ctx context.Context, sess *identity.Session, remember bool) {
	m.setKey(ctx, m.rememberKey, fmt.Sprint(remember))
	if remember {
		m.setKey(ctx, m.sessionKey, sess.Token())
	} else {
		m.removeKey(ctx, m.sessionKey)
	}

	m.commit(func(st *State) bool {
		m.remember = remember
		setSignedIn(st, sess)
		return true
	})
}

// SignOut ends the session. The backend is told on a best-effort basis; the
// local state is cleared regardless. Signing out while signed out leaves the
// state untouched and only forgets a remembered token left by a failed
// restore.
func (m *Manager) SignOut(ctx context.Context) error {
	sess := m.State().Session
	if sess == nil {
		m.removeKey(ctx, m.rememberKey)
		m.removeKey(ctx, m.sessionKey)
		return nil
	}

	if err := m.backend.InvalidateSession(ctx, sess); err != nil {
		m.logger.Warn(ctx, "failed to invalidate session", "error", err)
	}

	m.clear(ctx)
	m.logger.Info(ctx, "signed out", "email", sess.User.Email)
	return nil
}

func (m *Manager) clear(ctx context.Context) {
	m.removeKey(ctx, m.rememberKey)
	m.removeKey(ctx, m.sessionKey)

	m.commit(func(st *State) bool {
		m.remember = false
		if st.Session == nil {
			return false
		}
		st.Session = nil
		st.Profile = nil
		return true
	})
}

// RefreshProfile reloads the user record from the backend.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	sess := m.State().Session
	if sess == nil {
		return ErrNotSignedIn
	}

	u, err := m.backend.GetUser(ctx, sess)
	if err != nil {
		return wrapError(err)
	}
	if u == nil {
		return fmt.Errorf("%w: backend returned no user", common.ErrUnexpected)
	}

	var signedOut bool
	m.commit(func(st *State) bool {
		// the backend may have rotated or dropped the session meanwhile
		if st.Session == nil {
			signedOut = true
			return false
		}
		next := *st.Session
		next.User = *u
		setSignedIn(st, &next)
		return true
	})
	if signedOut {
		return ErrNotSignedIn
	}
	return nil
}

func (m *Manager) onBackendChange(sess *identity.Session) {
	ctx := context.Background()

	cur := m.State()
	if cur.BootLoading || cur.Session == nil {
		return
	}

	if sess == nil {
		m.logger.Info(ctx, "session invalidated by backend")
		m.clear(ctx)
		return
	}

	m.mu.Lock()
	remember := m.remember
	m.mu.Unlock()
	if remember {
		m.setKey(ctx, m.sessionKey, sess.Token())
	}

	m.commit(func(st *State) bool {
		if st.Session == nil {
			return false
		}
		next := *sess
		if next.User.Email == "" {
			next.User = st.Session.User
		}
		setSignedIn(st, &next)
		return true
	})
	m.logger.Debug(ctx, "session rotated")
}

// commit applies update under the lock and then notifies subscribers with
// the resulting snapshot. update reports whether anything changed.
func (m *Manager) commit(update func(*State) bool) {
	m.mu.Lock()
	wasBooting := m.state.BootLoading
	if !update(&m.state) {
		m.mu.Unlock()
		return
	}
	snapshot := m.state
	subs := make([]Listener, 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s.fn)
	}
	m.mu.Unlock()

	if wasBooting && !snapshot.BootLoading {
		close(m.booted)
	}

	for _, fn := range subs {
		fn(snapshot)
	}
}

func setSignedIn(st *State, sess *identity.Session) {
	st.Session = sess
	st.Profile = ProfileFromUser(sess.User)
}

func (m *Manager) setKey(ctx context.Context, key, value string) {
	if err := m.store.Set(ctx, key, value); err != nil {
		m.logger.Warn(ctx, "failed to persist key", "key", key, "error", err)
	}
}

func (m *Manager) removeKey(ctx context.Context, key string) {
	if err := m.store.Remove(ctx, key); err != nil {
		m.logger.Warn(ctx, "failed to remove key", "key", key, "error", err)
	}
}

// wrapError keeps taxonomy errors matchable and folds everything else into
// common.ErrUnexpected.
func wrapError(err error) error {
	if common.IsAuthError(err) || errors.Is(err, common.ErrUnexpected) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrUnexpected, err)
}
