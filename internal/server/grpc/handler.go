package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/fitcoach/internal/common"
	"github.com/dmitrijs2005/fitcoach/internal/identityrpc"
	"github.com/dmitrijs2005/fitcoach/internal/server/models"
	"github.com/dmitrijs2005/fitcoach/internal/server/services"
)

func (s *GRPCServer) SignUp(ctx context.Context, in identityrpc.Credentials) (*identityrpc.Session, error) {
	sess, err := s.accounts.SignUp(ctx, in.Email, in.Password, in.Metadata)
	if err != nil {
		return nil, s.toStatus(ctx, "sign up", err)
	}

	s.logger.Info(ctx, "Registered", "user_id", sess.User.ID)
	return toSession(sess), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, in identityrpc.Credentials) (*identityrpc.Session, error) {
	sess, err := s.accounts.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		return nil, s.toStatus(ctx, "sign in", err)
	}

	s.logger.Info(ctx, "Signed in", "user_id", sess.User.ID)
	return toSession(sess), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, in identityrpc.TokenRequest) (*identityrpc.Session, error) {
	sess, err := s.accounts.Refresh(ctx, in.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, "refresh", err)
	}

	s.logger.Debug(ctx, "Refreshed session", "user_id", sess.User.ID)
	return toSession(sess), nil
}

func (s *GRPCServer) GetUser(ctx context.Context, _ identityrpc.Empty) (*identityrpc.User, error) {
	userID, ok := UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	u, err := s.accounts.GetUser(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, "get user", err)
	}

	out := toUser(u)
	return &out, nil
}

func (s *GRPCServer) SignOut(ctx context.Context, in identityrpc.TokenRequest) (identityrpc.Empty, error) {
	if err := s.accounts.SignOut(ctx, in.RefreshToken); err != nil {
		return identityrpc.Empty{}, s.toStatus(ctx, "sign out", err)
	}
	return identityrpc.Empty{}, nil
}

// toStatus maps service errors onto the codes clients act on. Anything
// unexpected is logged and reported as a bare Internal.
func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrAccountAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrWeakCredentials):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrNotFound):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	s.logger.Error(ctx, op+" failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func toUser(u *models.User) identityrpc.User {
	return identityrpc.User{ID: u.ID, Email: u.Email, Metadata: u.Metadata}
}

func toSession(s *services.Session) *identityrpc.Session {
	return &identityrpc.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		User:         toUser(s.User),
	}
}
