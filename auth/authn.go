package auth

import (
	"context"
)

// PasswordAuthenticator authenticates a subject using the "password" grant or basic auth.
//
// It returns an ErrAuthenticationFailed error in case credentials are invalid.
// Implementations MUST return the same error for unknown, disabled and
// wrong-password subjects so that accounts cannot be enumerated.
type PasswordAuthenticator interface {
	AuthenticatePassword(ctx context.Context, username string, password string) (Subject, error)
}

// RefreshTokenAuthenticator authenticates a subject from a previously issued refresh token.
//
// It returns an ErrAuthenticationFailed error in case the token is invalid
// or was issued for another service.
type RefreshTokenAuthenticator interface {
	AuthenticateRefreshToken(ctx context.Context, service string, refreshToken string) (Subject, error)
}
