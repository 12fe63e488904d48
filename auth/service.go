package auth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quayside/registry-auth/pkg/option"
)

type TokenService interface {
	// TokenHandler implements the [Docker Registry v2 authentication] specification.
	//
	// [Docker Registry v2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/token.md
	TokenHandler(ctx context.Context, r TokenRequest) (TokenResponse, error)

	// OAuth2Handler implements the [Docker Registry v2 OAuth2 authentication] specification.
	//
	// [Docker Registry v2 OAuth2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/oauth.md
	OAuth2Handler(ctx context.Context, r OAuth2Request) (OAuth2Response, error)
}

type TokenRequest struct {
	Service  string
	ClientID string
	Offline  bool
	Scopes   Scopes

	Anonymous bool
	Username  string
	Password  string
}

type TokenResponse struct {
	Token        string `json:"token"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	IssuedAt     string `json:"issued_at,omitempty"`
}

type OAuth2Request struct {
	GrantType string

	Service    string
	ClientID   string
	AccessType string
	Scopes     Scopes

	Username     string
	Password     string
	RefreshToken string
}

type OAuth2Response struct {
	Token        string `json:"access_token"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	IssuedAt     string `json:"issued_at,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Authenticator is a facade combining different types of authenticators.
type Authenticator struct {
	PasswordAuthenticator
	RefreshTokenAuthenticator
}

// TokenIssuer is a facade combining different types of token issuers.
type TokenIssuer struct {
	AccessTokenIssuer
	RefreshTokenIssuer
}

// TokenServiceImpl implements the [Docker Registry v2 authentication] specification.
//
// [Docker Registry v2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/index.md
type TokenServiceImpl struct {
	Authenticator Authenticator
	Authorizer    Authorizer
	TokenIssuer   TokenIssuer

	// RequireGrantedAccess rejects requests where every requested scope
	// resolved to zero actions, instead of answering with an empty access
	// array. Identity-only token requests (no scopes) always succeed.
	RequireGrantedAccess bool

	Logger *zap.Logger
}

// TokenHandler implements the [Docker Registry v2 authentication] specification.
//
// [Docker Registry v2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/token.md
func (s TokenServiceImpl) TokenHandler(ctx context.Context, r TokenRequest) (TokenResponse, error) {
	if r.Service == "" {
		return TokenResponse{}, fmt.Errorf("%w: missing service", ErrInvalidRequest)
	}

	subject := option.None[Subject]()

	if !r.Anonymous {
		authenticatedSubject, err := s.Authenticator.AuthenticatePassword(ctx, r.Username, r.Password)
		if err != nil {
			return TokenResponse{}, err
		}

		subject = option.Some(authenticatedSubject)
	}

	token, grantedScopes, err := s.issueAccessToken(ctx, r.Service, subject, r.Scopes)
	if err != nil {
		return TokenResponse{}, err
	}

	response := TokenResponse{
		Token:       token.Payload,
		AccessToken: token.Payload,
		ExpiresIn:   int(token.ExpiresIn.Seconds()),
		IssuedAt:    token.IssuedAt.Format(time.RFC3339),
	}

	if r.Offline && subject.HasValue() {
		refreshToken, err := s.TokenIssuer.IssueRefreshToken(ctx, r.Service, subject.Value())
		if err != nil {
			return TokenResponse{}, err
		}

		response.RefreshToken = refreshToken
	}

	s.logger().Debug(
		"client authorized",
		zap.String("service", r.Service),
		zap.String("subject", option.MapOr(subject, "", Subject.ID)),
		zap.String("grantedScopes", grantedScopes.String()),
	)

	return response, nil
}

// OAuth2Handler implements the [Docker Registry v2 OAuth2 authentication] specification.
//
// [Docker Registry v2 OAuth2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/oauth.md
func (s TokenServiceImpl) OAuth2Handler(ctx context.Context, r OAuth2Request) (OAuth2Response, error) {
	if r.Service == "" {
		return OAuth2Response{}, fmt.Errorf("%w: missing service", ErrInvalidRequest)
	}

	var subject Subject
	var refreshToken string

	switch r.GrantType {
	case "refresh_token":
		if r.RefreshToken == "" {
			return OAuth2Response{}, fmt.Errorf("%w: missing refresh_token", ErrInvalidRequest)
		}

		var err error

		subject, err = s.Authenticator.AuthenticateRefreshToken(ctx, r.Service, r.RefreshToken)
		if err != nil {
			return OAuth2Response{}, err
		}

		refreshToken = r.RefreshToken
	case "password":
		if r.Username == "" {
			return OAuth2Response{}, fmt.Errorf("%w: missing username", ErrInvalidRequest)
		}
		if r.Password == "" {
			return OAuth2Response{}, fmt.Errorf("%w: missing password", ErrInvalidRequest)
		}

		var err error

		subject, err = s.Authenticator.AuthenticatePassword(ctx, r.Username, r.Password)
		if err != nil {
			return OAuth2Response{}, err
		}
	default:
		return OAuth2Response{}, fmt.Errorf("%w: unknown grant_type %q", ErrInvalidRequest, r.GrantType)
	}

	token, grantedScopes, err := s.issueAccessToken(ctx, r.Service, option.Some(subject), r.Scopes)
	if err != nil {
		return OAuth2Response{}, err
	}

	response := OAuth2Response{
		Token:     token.Payload,
		Scope:     grantedScopes.String(),
		ExpiresIn: int(token.ExpiresIn.Seconds()),
		IssuedAt:  token.IssuedAt.Format(time.RFC3339),
	}

	if r.AccessType == "offline" && r.GrantType == "password" {
		refreshToken, err = s.TokenIssuer.IssueRefreshToken(ctx, r.Service, subject)
		if err != nil {
			return OAuth2Response{}, err
		}
	}

	response.RefreshToken = refreshToken

	s.logger().Debug(
		"client authorized",
		zap.String("service", r.Service),
		zap.String("subject", subject.ID()),
		zap.String("grantedScopes", grantedScopes.String()),
	)

	return response, nil
}

func (s TokenServiceImpl) issueAccessToken(ctx context.Context, service string, subject option.Option[Subject], requestedScopes Scopes) (AccessToken, Scopes, error) {
	grantedScopes, err := s.Authorizer.Authorize(ctx, subject, requestedScopes)
	if err != nil {
		return AccessToken{}, nil, err
	}

	if s.RequireGrantedAccess && len(requestedScopes) > 0 && !hasGrantedActions(grantedScopes) {
		return AccessToken{}, nil, ErrNoAccessGranted
	}

	token, err := s.TokenIssuer.IssueAccessToken(ctx, service, subject, grantedScopes)
	if err != nil {
		return AccessToken{}, nil, err
	}

	return token, grantedScopes, nil
}

func hasGrantedActions(scopes Scopes) bool {
	for _, scope := range scopes {
		if len(scope.Actions) > 0 {
			return true
		}
	}

	return false
}

func (s TokenServiceImpl) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}

	return s.Logger
}
