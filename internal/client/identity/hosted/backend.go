// Package hosted implements identity.Backend against the identityd gRPC
// service.
package hosted

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/fitcoach/internal/client/identity"
	"github.com/dmitrijs2005/fitcoach/internal/common"
	"github.com/dmitrijs2005/fitcoach/internal/identityrpc"
	"github.com/dmitrijs2005/fitcoach/internal/logging"
)

const DefaultTimeout = 10 * time.Second

type rpcClient interface {
	SignUp(ctx context.Context, in identityrpc.Credentials, opts ...grpc.CallOption) (*identityrpc.Session, error)
	SignIn(ctx context.Context, in identityrpc.Credentials, opts ...grpc.CallOption) (*identityrpc.Session, error)
	Refresh(ctx context.Context, in identityrpc.TokenRequest, opts ...grpc.CallOption) (*identityrpc.Session, error)
	GetUser(ctx context.Context, opts ...grpc.CallOption) (*identityrpc.User, error)
	SignOut(ctx context.Context, in identityrpc.TokenRequest, opts ...grpc.CallOption) error
}

// Backend keeps the tokens of the current session and attaches the access
// token to authenticated calls. When identityd reports the access token as
// expired the backend refreshes it once, retries, and reports the rotated
// session to the OnSessionChange callback.
type Backend struct {
	endpointURL string
	timeout     time.Duration
	logger      logging.Logger

	conn   *grpc.ClientConn
	client rpcClient
	health healthpb.HealthClient

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	user         identity.User
	onChange     func(*identity.Session)
}

var (
	_ identity.Backend  = (*Backend)(nil)
	_ identity.Notifier = (*Backend)(nil)
)

// New dials endpointURL lazily; no I/O happens until the first call.
func New(endpointURL string, timeout time.Duration, logger logging.Logger) (*Backend, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	b := &Backend{
		endpointURL: endpointURL,
		timeout:     timeout,
		logger:      logger.With("module", "hosted_backend"),
	}
	if err := b.initGRPCClient(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) initGRPCClient() error {
	conn, err := grpc.NewClient(b.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(b.accessTokenInterceptor),
	)
	if err != nil {
		return fmt.Errorf("failed to create grpc client: %w", err)
	}
	b.conn = conn
	b.client = identityrpc.NewClient(conn)
	b.health = healthpb.NewHealthClient(conn)
	return nil
}

func (b *Backend) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}

func (b *Backend) OnSessionChange(fn func(*identity.Session)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

func (b *Backend) Authenticate(ctx context.Context, email, password string) (*identity.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.SignIn(ctx, identityrpc.Credentials{Email: email, Password: password})
	if err != nil {
		return nil, b.mapError(err)
	}
	return b.adopt(resp), nil
}

func (b *Backend) CreateAccount(ctx context.Context, email, password string, md identity.Metadata) (*identity.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.SignUp(ctx, identityrpc.Credentials{Email: email, Password: password, Metadata: md})
	if err != nil {
		return nil, b.mapError(err)
	}
	return b.adopt(resp), nil
}

// CurrentSession exchanges a persisted refresh token for a fresh session.
// The refresh token rotates, so callers should persist the returned
// session's token.
func (b *Backend) CurrentSession(ctx context.Context, token string) (*identity.Session, error) {
	if token == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.Refresh(ctx, identityrpc.TokenRequest{RefreshToken: token})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			return nil, nil
		}
		return nil, b.mapError(err)
	}
	return b.adopt(resp), nil
}

// InvalidateSession revokes the session's refresh token. Local tokens are
// dropped even when the call fails.
func (b *Backend) InvalidateSession(ctx context.Context, s *identity.Session) error {
	token := s.Token()

	b.mu.Lock()
	if token == "" {
		token = b.refreshToken
	}
	b.accessToken, b.refreshToken = "", ""
	b.expiresAt = time.Time{}
	b.user = identity.User{}
	b.mu.Unlock()

	if token == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	if err := b.client.SignOut(ctx, identityrpc.TokenRequest{RefreshToken: token}); err != nil {
		return b.mapError(err)
	}
	return nil
}

func (b *Backend) GetUser(ctx context.Context, s *identity.Session) (*identity.User, error) {
	if s != nil {
		b.mu.Lock()
		if b.refreshToken == "" {
			b.accessToken = s.AccessToken
			b.refreshToken = s.RefreshToken
			b.expiresAt = s.ExpiresAt
			b.user = s.User
		}
		b.mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.GetUser(ctx)
	if err != nil {
		return nil, b.mapError(err)
	}

	u := toUser(*resp)

	b.mu.Lock()
	b.user = u
	b.mu.Unlock()

	return &u, nil
}

// Ping checks identityd through the standard gRPC health service.
func (b *Backend) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.health.Check(ctx, &healthpb.HealthCheckRequest{Service: identityrpc.ServiceName})
	if err != nil {
		return b.mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return common.ErrNetworkUnavailable
	}
	return nil
}

// adopt stores the tokens of resp as the current session.
func (b *Backend) adopt(resp *identityrpc.Session) *identity.Session {
	s := toSession(resp)

	b.mu.Lock()
	b.accessToken = s.AccessToken
	b.refreshToken = s.RefreshToken
	b.expiresAt = s.ExpiresAt
	b.user = s.User
	b.mu.Unlock()

	return s
}

func (b *Backend) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return common.ErrInvalidCredentials
	case codes.AlreadyExists:
		return common.ErrAccountAlreadyExists
	case codes.InvalidArgument:
		return common.ErrWeakCredentials
	case codes.Unavailable, codes.DeadlineExceeded:
		return common.ErrNetworkUnavailable
	default:
		if errors.Is(err, context.DeadlineExceeded) {
			return common.ErrNetworkUnavailable
		}
		return fmt.Errorf("rpc error: %w", err)
	}
}

func toUser(u identityrpc.User) identity.User {
	return identity.User{ID: u.ID, Email: u.Email, Metadata: identity.Metadata(u.Metadata)}
}

func toSession(r *identityrpc.Session) *identity.Session {
	return &identity.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    r.ExpiresAt,
		User:         toUser(r.User),
	}
}
