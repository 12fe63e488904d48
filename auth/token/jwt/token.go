// Package jwt issues access and refresh tokens according to the
// [Token Authentication Specification] and [Token Authentication Implementation].
//
// [Token Authentication Specification]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/token.md
// [Token Authentication Implementation]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/jwt.md
package jwt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v4"
	"github.com/jonboulle/clockwork"

	"github.com/quayside/registry-auth/auth"
	"github.com/quayside/registry-auth/pkg/option"
)

type claims struct {
	jwt.RegisteredClaims

	Access auth.Scopes `json:"access"`
}

// IDGenerator generates unique token identifiers ("jti" claim).
type IDGenerator interface {
	GenerateID() (string, error)
}

type uuidIDGenerator struct{}

func (uuidIDGenerator) GenerateID() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

const defaultExpiration = 5 * time.Minute

// AccessTokenIssuer issues JWT access tokens signed with the current signing key.
type AccessTokenIssuer struct {
	issuer      string
	keyProvider SigningKeyProvider
	expiration  time.Duration

	clock       clockwork.Clock
	idGenerator IDGenerator
}

// NewAccessTokenIssuer returns a new AccessTokenIssuer.
func NewAccessTokenIssuer(issuer string, keyProvider SigningKeyProvider, expiration time.Duration, opts ...Option) AccessTokenIssuer {
	i := AccessTokenIssuer{
		issuer:      issuer,
		keyProvider: keyProvider,
		expiration:  expiration,
	}

	for _, opt := range opts {
		opt.applyAccessTokenIssuer(&i)
	}

	if i.expiration == 0 {
		i.expiration = defaultExpiration
	}

	if i.clock == nil {
		i.clock = clockwork.NewRealClock()
	}

	if i.idGenerator == nil {
		i.idGenerator = uuidIDGenerator{}
	}

	return i
}

// IssueAccessToken implements the auth.AccessTokenIssuer interface.
func (i AccessTokenIssuer) IssueAccessToken(_ context.Context, service string, subject option.Option[auth.Subject], grantedScopes auth.Scopes) (auth.AccessToken, error) {
	signingKey, err := i.keyProvider.CurrentKey()
	if err != nil {
		return auth.AccessToken{}, err
	}

	alg, err := detectSigningMethod(signingKey)
	if err != nil {
		return auth.AccessToken{}, err
	}

	id, err := i.idGenerator.GenerateID()
	if err != nil {
		return auth.AccessToken{}, err
	}

	if grantedScopes == nil {
		grantedScopes = auth.Scopes{}
	}

	now := i.clock.Now()

	claims := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   option.MapOr(subject, "", auth.Subject.ID),
			Audience:  jwt.ClaimStrings{service},
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiration)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        id,
		},
		Access: grantedScopes,
	}

	token := jwt.NewWithClaims(alg, claims)

	if x5c := signingKey.GetExtendedField("x5c"); x5c != nil {
		token.Header["x5c"] = x5c.([]string)
	} else {
		var jwkMessage json.RawMessage
		jwkMessage, err = signingKey.PublicKey().MarshalJSON()
		if err != nil {
			return auth.AccessToken{}, fmt.Errorf("%w: %v", auth.ErrSigningUnavailable, err)
		}
		token.Header["jwk"] = &jwkMessage
	}

	signedToken, err := token.SignedString(signingKey.CryptoPrivateKey())
	if err != nil {
		return auth.AccessToken{}, fmt.Errorf("%w: %v", auth.ErrSigningUnavailable, err)
	}

	return auth.AccessToken{
		Payload:   signedToken,
		ExpiresIn: i.expiration,
		IssuedAt:  now,
	}, nil
}
