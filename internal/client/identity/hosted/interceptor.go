package hosted

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/fitcoach/internal/client/identity"
	"github.com/dmitrijs2005/fitcoach/internal/common"
	"github.com/dmitrijs2005/fitcoach/internal/identityrpc"
)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (b *Backend) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	// only GetUser is authenticated by access token
	if method != identityrpc.MethodGetUser {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	b.mu.Lock()
	accessToken, refreshToken := b.accessToken, b.refreshToken
	b.mu.Unlock()

	err := invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}
	if refreshToken == "" {
		return err
	}

	b.logger.Debug(ctx, "access token expired, refreshing")

	resp, rerr := b.client.Refresh(ctx, identityrpc.TokenRequest{RefreshToken: refreshToken})
	if rerr != nil {
		if status.Code(rerr) == codes.Unauthenticated {
			b.logger.Info(ctx, "refresh token rejected, session invalidated")
			b.drop()
			b.notify(nil)
		}
		return rerr
	}

	s := b.adopt(resp)
	b.notify(s)

	// tokens refreshed, retrying with the new access token
	return invoker(withAccessToken(ctx, s.AccessToken), method, req, reply, cc, opts...)
}

func (b *Backend) drop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accessToken, b.refreshToken = "", ""
	b.user = identity.User{}
}

func (b *Backend) notify(s *identity.Session) {
	b.mu.Lock()
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}
