package auth

import (
	"context"
	"time"

	"github.com/quayside/registry-auth/pkg/option"
)

// AccessToken is a credential issued to a registry client as described in the [Token Authentication Specification].
//
// [Token Authentication Specification]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/token.md
type AccessToken struct {
	Payload string

	ExpiresIn time.Duration
	IssuedAt  time.Time
}

// AccessTokenIssuer issues a token described in the [Token Authentication Specification].
//
// [Token Authentication Specification]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/token.md
type AccessTokenIssuer interface {
	IssueAccessToken(ctx context.Context, service string, subject option.Option[Subject], grantedScopes Scopes) (AccessToken, error)
}
