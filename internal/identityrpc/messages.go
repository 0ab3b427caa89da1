package identityrpc

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// Field names used on the wire.
const (
	fieldEmail        = "email"
	fieldPassword     = "password"
	fieldMetadata     = "metadata"
	fieldRefreshToken = "refresh_token"
	fieldAccessToken  = "access_token"
	fieldExpiresAt    = "expires_at"
	fieldUser         = "user"
	fieldID           = "id"
)

// Empty is the request of GetUser and the reply of SignOut.
type Empty struct{}

// Credentials is the request of SignUp and SignIn. Metadata is only
// meaningful for SignUp.
type Credentials struct {
	Email    string
	Password string
	Metadata map[string]any
}

// TokenRequest is the request of Refresh and SignOut.
type TokenRequest struct {
	RefreshToken string
}

type User struct {
	ID       string
	Email    string
	Metadata map[string]any
}

// Session is the reply of SignUp, SignIn and Refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

func EncodeEmpty(Empty) (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
}

func DecodeEmpty(*structpb.Struct) (Empty, error) {
	return Empty{}, nil
}

func EncodeCredentials(c Credentials) (*structpb.Struct, error) {
	fields := map[string]*structpb.Value{
		fieldEmail:    structpb.NewStringValue(c.Email),
		fieldPassword: structpb.NewStringValue(c.Password),
	}
	if len(c.Metadata) > 0 {
		md, err := structpb.NewStruct(c.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		fields[fieldMetadata] = structpb.NewStructValue(md)
	}
	return &structpb.Struct{Fields: fields}, nil
}

func DecodeCredentials(s *structpb.Struct) (Credentials, error) {
	return Credentials{
		Email:    str(s, fieldEmail),
		Password: str(s, fieldPassword),
		Metadata: s.GetFields()[fieldMetadata].GetStructValue().AsMap(),
	}, nil
}

func EncodeTokenRequest(r TokenRequest) (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldRefreshToken: structpb.NewStringValue(r.RefreshToken),
	}}, nil
}

func DecodeTokenRequest(s *structpb.Struct) (TokenRequest, error) {
	return TokenRequest{RefreshToken: str(s, fieldRefreshToken)}, nil
}

func EncodeUser(u *User) (*structpb.Struct, error) {
	if u == nil {
		return nil, fmt.Errorf("encode user: nil user")
	}
	fields := map[string]*structpb.Value{
		fieldID:    structpb.NewStringValue(u.ID),
		fieldEmail: structpb.NewStringValue(u.Email),
	}
	md, err := structpb.NewStruct(u.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	fields[fieldMetadata] = structpb.NewStructValue(md)
	return &structpb.Struct{Fields: fields}, nil
}

func DecodeUser(s *structpb.Struct) (*User, error) {
	u := &User{
		ID:    str(s, fieldID),
		Email: str(s, fieldEmail),
	}
	if md := s.GetFields()[fieldMetadata].GetStructValue(); md != nil {
		u.Metadata = md.AsMap()
	}
	return u, nil
}

func EncodeSession(r *Session) (*structpb.Struct, error) {
	if r == nil {
		return nil, fmt.Errorf("encode session: nil session")
	}
	user, err := EncodeUser(&r.User)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldAccessToken:  structpb.NewStringValue(r.AccessToken),
		fieldRefreshToken: structpb.NewStringValue(r.RefreshToken),
		fieldExpiresAt:    structpb.NewStringValue(r.ExpiresAt.UTC().Format(time.RFC3339Nano)),
		fieldUser:         structpb.NewStructValue(user),
	}}, nil
}

func DecodeSession(s *structpb.Struct) (*Session, error) {
	r := &Session{
		AccessToken:  str(s, fieldAccessToken),
		RefreshToken: str(s, fieldRefreshToken),
	}
	if r.AccessToken == "" || r.RefreshToken == "" {
		return nil, fmt.Errorf("decode session: missing tokens")
	}
	if v := str(s, fieldExpiresAt); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		r.ExpiresAt = t
	}
	user, err := DecodeUser(s.GetFields()[fieldUser].GetStructValue())
	if err != nil {
		return nil, err
	}
	r.User = *user
	return r, nil
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}
