package jwt

import (
	"github.com/jonboulle/clockwork"
)

// Option configures a token issuer.
type Option interface {
	applyAccessTokenIssuer(i *AccessTokenIssuer)
	applyRefreshTokenIssuer(i *RefreshTokenIssuer)
}

// WithClock sets the clock used for time-based claims.
func WithClock(clock clockwork.Clock) Option {
	return withClock{clock: clock}
}

type withClock struct {
	clock clockwork.Clock
}

func (o withClock) applyAccessTokenIssuer(i *AccessTokenIssuer) {
	i.clock = o.clock
}

func (o withClock) applyRefreshTokenIssuer(i *RefreshTokenIssuer) {
	i.clock = o.clock
}

// WithIDGenerator sets the generator used for the "jti" claim.
func WithIDGenerator(idGenerator IDGenerator) Option {
	return withIDGenerator{idGenerator: idGenerator}
}

type withIDGenerator struct {
	idGenerator IDGenerator
}

func (o withIDGenerator) applyAccessTokenIssuer(i *AccessTokenIssuer) {
	i.idGenerator = o.idGenerator
}

func (o withIDGenerator) applyRefreshTokenIssuer(i *RefreshTokenIssuer) {}
