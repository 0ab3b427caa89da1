// Package identityrpc is the wire contract between the fitcoach client and
// identityd. Messages travel as google.protobuf.Struct so no generated code
// is needed; the typed structs in this package are converted at the edges.
package identityrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "fitcoach.identity.v1.Identity"

const (
	MethodSignUp  = "/" + ServiceName + "/SignUp"
	MethodSignIn  = "/" + ServiceName + "/SignIn"
	MethodRefresh = "/" + ServiceName + "/Refresh"
	MethodGetUser = "/" + ServiceName + "/GetUser"
	MethodSignOut = "/" + ServiceName + "/SignOut"
)

// Server is implemented by identityd.
type Server interface {
	SignUp(ctx context.Context, in Credentials) (*Session, error)
	SignIn(ctx context.Context, in Credentials) (*Session, error)
	Refresh(ctx context.Context, in TokenRequest) (*Session, error)
	// GetUser returns the user the call's access token belongs to.
	GetUser(ctx context.Context, in Empty) (*User, error)
	SignOut(ctx context.Context, in TokenRequest) (Empty, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: handler(MethodSignUp, DecodeCredentials, Server.SignUp, EncodeSession)},
		{MethodName: "SignIn", Handler: handler(MethodSignIn, DecodeCredentials, Server.SignIn, EncodeSession)},
		{MethodName: "Refresh", Handler: handler(MethodRefresh, DecodeTokenRequest, Server.Refresh, EncodeSession)},
		{MethodName: "GetUser", Handler: handler(MethodGetUser, DecodeEmpty, Server.GetUser, EncodeUser)},
		{MethodName: "SignOut", Handler: handler(MethodSignOut, DecodeTokenRequest, Server.SignOut, EncodeEmpty)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fitcoach/identity/v1/identity.proto",
}

func RegisterServer(r grpc.ServiceRegistrar, srv Server) {
	r.RegisterService(&ServiceDesc, srv)
}

func handler[Req, Resp any](
	fullMethod string,
	decode func(*structpb.Struct) (Req, error),
	call func(Server, context.Context, Req) (Resp, error),
	encode func(Resp) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		h := func(ctx context.Context, req any) (any, error) {
			r, err := decode(req.(*structpb.Struct))
			if err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			out, err := call(srv.(Server), ctx, r)
			if err != nil {
				return nil, err
			}
			msg, err := encode(out)
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
			return msg, nil
		}

		if interceptor == nil {
			return h(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, h)
	}
}

// Client is the typed client side of the service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) SignUp(ctx context.Context, in Credentials, opts ...grpc.CallOption) (*Session, error) {
	return invoke(ctx, c.cc, MethodSignUp, in, EncodeCredentials, DecodeSession, opts)
}

func (c *Client) SignIn(ctx context.Context, in Credentials, opts ...grpc.CallOption) (*Session, error) {
	return invoke(ctx, c.cc, MethodSignIn, in, EncodeCredentials, DecodeSession, opts)
}

func (c *Client) Refresh(ctx context.Context, in TokenRequest, opts ...grpc.CallOption) (*Session, error) {
	return invoke(ctx, c.cc, MethodRefresh, in, EncodeTokenRequest, DecodeSession, opts)
}

func (c *Client) GetUser(ctx context.Context, opts ...grpc.CallOption) (*User, error) {
	return invoke(ctx, c.cc, MethodGetUser, Empty{}, EncodeEmpty, DecodeUser, opts)
}

func (c *Client) SignOut(ctx context.Context, in TokenRequest, opts ...grpc.CallOption) error {
	_, err := invoke(ctx, c.cc, MethodSignOut, in, EncodeTokenRequest, DecodeEmpty, opts)
	return err
}

func invoke[Req, Resp any](
	ctx context.Context,
	cc grpc.ClientConnInterface,
	method string,
	in Req,
	encode func(Req) (*structpb.Struct, error),
	decode func(*structpb.Struct) (Resp, error),
	opts []grpc.CallOption,
) (Resp, error) {
	var zero Resp

	req, err := encode(in)
	if err != nil {
		return zero, err
	}

	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return zero, err
	}

	return decode(out)
}
