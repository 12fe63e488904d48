// Package config loads the server configuration from a YAML file.
//
// Pluggable components (authenticator, authorizer, token issuers) are
// configured with a type discriminator and a type-specific config block,
// decoded through factories.
package config

import "fmt"

// Config collects all configuration options.
type Config struct {
	Directory          Directory          `yaml:"directory"`
	Authenticator      Authenticator      `yaml:"authenticator"`
	Authorizer         Authorizer         `yaml:"authorizer"`
	AccessTokenIssuer  AccessTokenIssuer  `yaml:"accessTokenIssuer"`
	RefreshTokenIssuer RefreshTokenIssuer `yaml:"refreshTokenIssuer"`
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if err := c.Directory.Validate(); err != nil {
		return err
	}

	if c.Authenticator.Config == nil {
		return fmt.Errorf("authenticator is required")
	}

	if err := c.Authenticator.Config.Validate(); err != nil {
		return err
	}

	if c.Authorizer.Config == nil {
		return fmt.Errorf("authorizer is required")
	}

	if err := c.Authorizer.Config.Validate(); err != nil {
		return err
	}

	if c.AccessTokenIssuer.Config == nil {
		return fmt.Errorf("access token issuer is required")
	}

	if err := c.AccessTokenIssuer.Config.Validate(); err != nil {
		return err
	}

	if c.RefreshTokenIssuer.Config == nil {
		return fmt.Errorf("refresh token issuer is required")
	}

	if err := c.RefreshTokenIssuer.Config.Validate(); err != nil {
		return err
	}

	return nil
}

// rawConfig is a general struct used by other config structs to unmarshal the yaml config first.
type rawConfig struct {
	Type   string                 `yaml:"type"`
	Config map[string]interface{} `yaml:"config"`
}
