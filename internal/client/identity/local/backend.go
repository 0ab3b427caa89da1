// Package local implements identity.Backend on top of a kvstore.Store, for
// running the client without identityd. Accounts never leave the device.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fitcoach/internal/client/identity"
	"github.com/dmitrijs2005/fitcoach/internal/client/kvstore"
	"github.com/dmitrijs2005/fitcoach/internal/common"
	"github.com/dmitrijs2005/fitcoach/internal/cryptox"
	"github.com/dmitrijs2005/fitcoach/internal/logging"
)

const (
	accountKeyPrefix = "local:account:"
	sessionKeyPrefix = "local:session:"
	activeKeyPrefix  = "local:active:"

	tokenSize = 32
)

// account is the stored form of a local account. Profile holds the email
// and the registration metadata as one JSON object.
type account struct {
	Profile  map[string]any `json:"profile"`
	Salt     []byte         `json:"salt"`
	Verifier []byte         `json:"verifier"`
}

type Backend struct {
	store  kvstore.Store
	logger logging.Logger
}

var _ identity.Backend = (*Backend)(nil)

func New(store kvstore.Store, logger logging.Logger) *Backend {
	return &Backend{store: store, logger: logger.With("module", "local_backend")}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (b *Backend) CreateAccount(ctx context.Context, email, password string, md identity.Metadata) (*identity.Session, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < common.MinPasswordLength {
		return nil, common.ErrWeakCredentials
	}

	_, found, err := b.store.Get(ctx, accountKeyPrefix+email)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if found {
		return nil, common.ErrAccountAlreadyExists
	}

	profile := make(map[string]any, len(md)+1)
	for k, v := range md {
		profile[k] = v
	}
	profile["email"] = email

	salt := cryptox.NewSalt()
	key := cryptox.DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(key)

	acc := account{Profile: profile, Salt: salt, Verifier: cryptox.MakeVerifier(key)}
	data, err := json.Marshal(acc)
	if err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	if err := b.store.Set(ctx, accountKeyPrefix+email, string(data)); err != nil {
		return nil, fmt.Errorf("save account: %w", err)
	}

	b.logger.Info(ctx, "account created", "email", email)

	// round-trip through JSON so the session carries what later reads return
	return b.openSession(ctx, email, decodeProfile(data))
}

func (b *Backend) Authenticate(ctx context.Context, email, password string) (*identity.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	acc, err := b.loadAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil || !cryptox.CheckVerifier([]byte(password), acc.Salt, acc.Verifier) {
		return nil, common.ErrInvalidCredentials
	}

	return b.openSession(ctx, email, acc.Profile)
}

func (b *Backend) CurrentSession(ctx context.Context, token string) (*identity.Session, error) {
	if token == "" {
		return nil, nil
	}

	email, found, err := b.store.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if !found {
		return nil, nil
	}

	acc, err := b.loadAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		// account is gone, the session with it
		_ = b.store.Remove(ctx, sessionKeyPrefix+token)
		return nil, nil
	}

	return &identity.Session{RefreshToken: token, User: toUser(acc.Profile)}, nil
}

func (b *Backend) InvalidateSession(ctx context.Context, s *identity.Session) error {
	token := s.Token()
	if token == "" {
		return nil
	}
	if err := b.store.Remove(ctx, sessionKeyPrefix+token); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if email := normalizeEmail(s.User.Email); email != "" {
		if active, _, err := b.store.Get(ctx, activeKeyPrefix+email); err == nil && active == token {
			_ = b.store.Remove(ctx, activeKeyPrefix+email)
		}
	}
	return nil
}

func (b *Backend) GetUser(ctx context.Context, s *identity.Session) (*identity.User, error) {
	cur, err := b.CurrentSession(ctx, s.Token())
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, common.ErrInvalidCredentials
	}
	return &cur.User, nil
}

func (b *Backend) Close() error {
	return nil
}

// openSession issues a new token for email and retires the account's
// previous one, so an account has at most one stored session.
func (b *Backend) openSession(ctx context.Context, email string, profile map[string]any) (*identity.Session, error) {
	token, err := common.MakeRandHexString(tokenSize)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	prev, found, err := b.store.Get(ctx, activeKeyPrefix+email)
	if err != nil {
		return nil, fmt.Errorf("lookup active session: %w", err)
	}

	if err := b.store.Set(ctx, sessionKeyPrefix+token, email); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if err := b.store.Set(ctx, activeKeyPrefix+email, token); err != nil {
		return nil, fmt.Errorf("save active session: %w", err)
	}

	if found && prev != "" && prev != token {
		if err := b.store.Remove(ctx, sessionKeyPrefix+prev); err != nil {
			b.logger.Warn(ctx, "failed to remove previous session", "error", err)
		}
	}
	return &identity.Session{RefreshToken: token, User: toUser(profile)}, nil
}

func (b *Backend) loadAccount(ctx context.Context, email string) (*account, error) {
	data, found, err := b.store.Get(ctx, accountKeyPrefix+email)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if !found {
		return nil, nil
	}

	var acc account
	if err := json.Unmarshal([]byte(data), &acc); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &acc, nil
}

func decodeProfile(data []byte) map[string]any {
	var acc account
	_ = json.Unmarshal(data, &acc)
	return acc.Profile
}

// toUser splits a stored profile into the identity fields and metadata.
// Local accounts have no id; the email identifies them.
func toUser(profile map[string]any) identity.User {
	u := identity.User{Metadata: identity.Metadata{}}
	for k, v := range profile {
		switch k {
		case "email":
			u.Email, _ = v.(string)
		case "id":
		default:
			u.Metadata[k] = v
		}
	}
	return u
}
