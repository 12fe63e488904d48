package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/quayside/registry-auth/auth"
	"github.com/quayside/registry-auth/auth/token/jwt"
)

// RefreshTokenIssuer is the configuration for an auth.RefreshTokenIssuer.
type RefreshTokenIssuer struct {
	Config RefreshTokenIssuerFactory
}

func (c *RefreshTokenIssuer) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig rawConfig

	err := value.Decode(&rawConfig)
	if err != nil {
		return err
	}

	var config RefreshTokenIssuerFactory

	switch rawConfig.Type {
	case "jwt":
		var factory jwtRefreshTokenIssuer

		err := decode(rawConfig.Config, &factory)
		if err != nil {
			return err
		}

		config = factory

	default:
		return fmt.Errorf("unknown refresh token issuer type: %s", rawConfig.Type)
	}

	c.Config = config

	return nil
}

// RefreshTokenIssuerFactory creates a new auth.RefreshTokenIssuer
// along with the matching auth.RefreshTokenVerifier.
type RefreshTokenIssuerFactory interface {
	CreateRefreshTokenIssuer() (auth.RefreshTokenIssuer, auth.RefreshTokenVerifier, error)
	Validate() error
}

type jwtRefreshTokenIssuer struct {
	Issuer         string `mapstructure:"issuer"`
	PrivateKeyFile string `mapstructure:"privateKeyFile"`
}

func (c jwtRefreshTokenIssuer) CreateRefreshTokenIssuer() (auth.RefreshTokenIssuer, auth.RefreshTokenVerifier, error) {
	keyProvider, err := jwt.LoadKeyFile(c.PrivateKeyFile)
	if err != nil {
		return nil, nil, err
	}

	issuer := jwt.NewRefreshTokenIssuer(c.Issuer, keyProvider)

	return issuer, issuer, nil
}

func (c jwtRefreshTokenIssuer) Validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("refresh token issuer: jwt: issuer is required")
	}

	if c.PrivateKeyFile == "" {
		return fmt.Errorf("refresh token issuer: jwt: privateKeyFile is required")
	}

	return nil
}
