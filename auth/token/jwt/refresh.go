package jwt

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"

	"github.com/quayside/registry-auth/auth"
)

// RefreshTokenIssuer issues (and verifies) JWT refresh tokens bound to an issuer and a service.
type RefreshTokenIssuer struct {
	issuer      string
	keyProvider SigningKeyProvider

	clock clockwork.Clock
}

// NewRefreshTokenIssuer returns a new RefreshTokenIssuer.
func NewRefreshTokenIssuer(issuer string, keyProvider SigningKeyProvider, opts ...Option) RefreshTokenIssuer {
	i := RefreshTokenIssuer{
		issuer:      issuer,
		keyProvider: keyProvider,
	}

	for _, opt := range opts {
		opt.applyRefreshTokenIssuer(&i)
	}

	if i.clock == nil {
		i.clock = clockwork.NewRealClock()
	}

	return i
}

// IssueRefreshToken implements the auth.RefreshTokenIssuer interface.
func (i RefreshTokenIssuer) IssueRefreshToken(_ context.Context, service string, subject auth.Subject) (string, error) {
	signingKey, err := i.keyProvider.CurrentKey()
	if err != nil {
		return "", err
	}

	alg, err := detectSigningMethod(signingKey)
	if err != nil {
		return "", err
	}

	now := i.clock.Now()

	claims := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   subject.ID(),
		Audience:  jwt.ClaimStrings{service},
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(alg, claims)

	signedToken, err := token.SignedString(signingKey.CryptoPrivateKey())
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

// VerifyRefreshToken implements the auth.RefreshTokenVerifier interface.
func (i RefreshTokenIssuer) VerifyRefreshToken(_ context.Context, service string, refreshToken string) (string, error) {
	signingKey, err := i.keyProvider.CurrentKey()
	if err != nil {
		return "", err
	}

	var claims jwt.RegisteredClaims

	_, err = jwt.ParseWithClaims(refreshToken, &claims, func(t *jwt.Token) (interface{}, error) {
		return signingKey.PublicKey().CryptoPublicKey(), nil
	})
	if err != nil {
		return "", auth.ErrAuthenticationFailed
	}

	if !claims.VerifyAudience(service, true) || !claims.VerifyIssuer(i.issuer, true) {
		return "", auth.ErrAuthenticationFailed
	}

	return claims.Subject, nil
}
