package grpc

import (
	"context"
	"io"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/fitcoach/internal/common"
	"github.com/dmitrijs2005/fitcoach/internal/identityrpc"
	"github.com/dmitrijs2005/fitcoach/internal/logging"
	"github.com/dmitrijs2005/fitcoach/internal/server/auth"
	"github.com/dmitrijs2005/fitcoach/internal/server/models"
	"github.com/dmitrijs2005/fitcoach/internal/server/services"
)

const testSecret = "super-secret"

// ---- fakes ----

type fakeAccounts struct {
	err        error
	lastEmail  string
	lastMeta   map[string]any
	lastToken  string
	lastUserID string
}

func (f *fakeAccounts) session(email string) *services.Session {
	return &services.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
		User:         &models.User{ID: "u1", Email: email, Metadata: f.lastMeta},
	}
}

func (f *fakeAccounts) SignUp(_ context.Context, email, _ string, md map[string]any) (*services.Session, error) {
	f.lastEmail, f.lastMeta = email, md
	if f.err != nil {
		return nil, f.err
	}
	return f.session(email), nil
}

func (f *fakeAccounts) SignIn(_ context.Context, email, _ string) (*services.Session, error) {
	f.lastEmail = email
	if f.err != nil {
		return nil, f.err
	}
	return f.session(email), nil
}

func (f *fakeAccounts) Refresh(_ context.Context, token string) (*services.Session, error) {
	f.lastToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.session("a@b.c"), nil
}

func (f *fakeAccounts) GetUser(_ context.Context, userID string) (*models.User, error) {
	f.lastUserID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: userID, Email: "a@b.c", Metadata: map[string]any{"name": "Kim"}}, nil
}

func (f *fakeAccounts) SignOut(_ context.Context, token string) error {
	f.lastToken = token
	return f.err
}

// ---- harness ----

type harness struct {
	client  *identityrpc.Client
	health  healthpb.HealthClient
	metrics *Metrics
	cancel  context.CancelFunc
	done    chan error
}

func start(t *testing.T, accounts Accounts) *harness {
	t.Helper()

	m := NewMetrics()
	s := NewGRPCServer("bufnet", logging.Nop{}, accounts, testSecret, m)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	h := &harness{
		client:  identityrpc.NewClient(conn),
		health:  healthpb.NewHealthClient(conn),
		metrics: m,
		cancel:  cancel,
		done:    done,
	}
	t.Cleanup(func() {
		_ = conn.Close()
		h.stop(t)
	})
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err, ok := <-h.done:
		if ok {
			assert.NoError(t, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func withToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, common.AccessTokenHeaderName, token)
}

// ---- tests ----

func TestSignUp_RoundTrip(t *testing.T) {
	accounts := &fakeAccounts{}
	h := start(t, accounts)

	sess, err := h.client.SignUp(context.Background(), identityrpc.Credentials{
		Email:    "a@b.c",
		Password: "secret1",
		Metadata: map[string]any{"name": "Kim", "goal": "근육 증가"},
	})
	require.NoError(t, err)

	assert.Equal(t, "a@b.c", accounts.lastEmail)
	assert.Equal(t, map[string]any{"name": "Kim", "goal": "근육 증가"}, accounts.lastMeta)
	assert.Equal(t, "access", sess.AccessToken)
	assert.Equal(t, "refresh", sess.RefreshToken)
	assert.True(t, sess.ExpiresAt.Equal(time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "u1", sess.User.ID)
	assert.Equal(t, "근육 증가", sess.User.Metadata["goal"])
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"invalid credentials", common.ErrInvalidCredentials, codes.Unauthenticated},
		{"already exists", common.ErrAccountAlreadyExists, codes.AlreadyExists},
		{"weak password", common.ErrWeakCredentials, codes.InvalidArgument},
		{"unknown refresh token", common.ErrInvalidToken, codes.Unauthenticated},
		{"expired refresh token", common.ErrRefreshTokenExpired, codes.Unauthenticated},
		{"db failure", assert.AnError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := start(t, &fakeAccounts{err: tt.err})

			_, err := h.client.SignIn(context.Background(), identityrpc.Credentials{Email: "a@b.c", Password: "x"})
			assert.Equal(t, tt.want, status.Code(err))

			_, err = h.client.Refresh(context.Background(), identityrpc.TokenRequest{RefreshToken: "r"})
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	h := start(t, &fakeAccounts{err: assert.AnError})

	_, err := h.client.SignIn(context.Background(), identityrpc.Credentials{Email: "a@b.c", Password: "x"})
	assert.Equal(t, "internal error", status.Convert(err).Message())
}

func TestGetUser_Authentication(t *testing.T) {
	valid, _, err := auth.GenerateToken("u42", []byte(testSecret), time.Hour)
	require.NoError(t, err)
	expired, _, err := auth.GenerateToken("u42", []byte(testSecret), -time.Second)
	require.NoError(t, err)
	foreign, _, err := auth.GenerateToken("u42", []byte("other"), time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		ctx     context.Context
		wantMsg string
	}{
		{"missing token", context.Background(), "missing token"},
		{"expired token", withToken(context.Background(), expired), "token expired"},
		{"foreign token", withToken(context.Background(), foreign), "invalid token"},
		{"garbage token", withToken(context.Background(), "nope"), "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &fakeAccounts{}
			h := start(t, accounts)

			_, err := h.client.GetUser(tt.ctx)
			st := status.Convert(err)
			assert.Equal(t, codes.Unauthenticated, st.Code())
			assert.Equal(t, tt.wantMsg, st.Message())
			assert.Empty(t, accounts.lastUserID)
		})
	}

	t.Run("valid token", func(t *testing.T) {
		accounts := &fakeAccounts{}
		h := start(t, accounts)

		u, err := h.client.GetUser(withToken(context.Background(), valid))
		require.NoError(t, err)
		assert.Equal(t, "u42", accounts.lastUserID)
		assert.Equal(t, "u42", u.ID)
		assert.Equal(t, "Kim", u.Metadata["name"])
	})
}

func TestSignOut_PassesToken(t *testing.T) {
	accounts := &fakeAccounts{}
	h := start(t, accounts)

	require.NoError(t, h.client.SignOut(context.Background(), identityrpc.TokenRequest{RefreshToken: "r9"}))
	assert.Equal(t, "r9", accounts.lastToken)
}

func TestHealth_Serving(t *testing.T) {
	h := start(t, &fakeAccounts{})

	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: identityrpc.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestMetrics_CountsCalls(t *testing.T) {
	h := start(t, &fakeAccounts{})

	_, err := h.client.SignIn(context.Background(), identityrpc.Credentials{Email: "a@b.c", Password: "x"})
	require.NoError(t, err)
	_, err = h.client.GetUser(context.Background())
	require.Error(t, err)

	srv := httptest.NewServer(h.metrics.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, `identity_requests_total{code="OK",method="SignIn"} 1`)
	assert.Contains(t, text, `identity_requests_total{code="Unauthenticated",method="GetUser"} 1`)
	assert.Contains(t, text, `identity_request_duration_seconds_count{method="SignIn"} 1`)
}

func TestNewMetricsServer_Routes(t *testing.T) {
	srv := NewMetricsServer(":0", NewMetrics())

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/other", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	s := NewGRPCServer("127.0.0.1:99999", logging.Nop{}, &fakeAccounts{}, testSecret, nil)
	assert.Error(t, s.Run(context.Background()))
}

func TestInterceptor_PublicMethodsSkipAuth(t *testing.T) {
	s := NewGRPCServer("", logging.Nop{}, &fakeAccounts{}, testSecret, nil)

	called := false
	h := func(ctx context.Context, req any) (any, error) {
		called = true
		_, ok := UserIDFromContext(ctx)
		assert.False(t, ok)
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: identityrpc.MethodSignIn}, h)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", resp)
}
