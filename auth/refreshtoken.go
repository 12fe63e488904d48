package auth

import (
	"context"
)

// RefreshTokenIssuer issues a token that a client can use to issue a new token
// for a subject without presenting credentials again.
type RefreshTokenIssuer interface {
	IssueRefreshToken(ctx context.Context, service string, subject Subject) (string, error)
}

// RefreshTokenVerifier verifies a refresh token and returns the subject
// identifier it was issued for.
type RefreshTokenVerifier interface {
	VerifyRefreshToken(ctx context.Context, service string, refreshToken string) (string, error)
}
