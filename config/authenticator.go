package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/quayside/registry-auth/auth"
	"github.com/quayside/registry-auth/auth/authn"
	"github.com/quayside/registry-auth/auth/directory"
)

// Authenticator is the configuration for an auth.PasswordAuthenticator.
type Authenticator struct {
	Config AuthenticatorFactory
}

func (c *Authenticator) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig rawConfig

	err := value.Decode(&rawConfig)
	if err != nil {
		return err
	}

	var config AuthenticatorFactory

	switch rawConfig.Type {
	case "directory":
		var factory directoryAuthenticator

		err := decode(rawConfig.Config, &factory)
		if err != nil {
			return err
		}

		config = factory

	default:
		return fmt.Errorf("unknown authenticator type: %s", rawConfig.Type)
	}

	c.Config = config

	return nil
}

// AuthenticatorFactory creates a new auth.PasswordAuthenticator.
type AuthenticatorFactory interface {
	CreateAuthenticator(d directory.Directory) (auth.PasswordAuthenticator, error)
	Validate() error
}

type directoryAuthenticator struct{}

func (directoryAuthenticator) CreateAuthenticator(d directory.Directory) (auth.PasswordAuthenticator, error) {
	return authn.NewDirectoryAuthenticator(d), nil
}

func (directoryAuthenticator) Validate() error {
	return nil
}
