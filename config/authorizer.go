package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/quayside/registry-auth/auth"
	"github.com/quayside/registry-auth/auth/authz"
	"github.com/quayside/registry-auth/auth/directory"
)

// Authorizer is the configuration for an auth.Authorizer.
type Authorizer struct {
	Config AuthorizerFactory
}

func (c *Authorizer) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig rawConfig

	err := value.Decode(&rawConfig)
	if err != nil {
		return err
	}

	var config AuthorizerFactory

	switch rawConfig.Type {
	case "namespace":
		var factory namespaceAuthorizer

		err := decode(rawConfig.Config, &factory)
		if err != nil {
			return err
		}

		config = factory

	default:
		return fmt.Errorf("unknown authorizer type: %s", rawConfig.Type)
	}

	c.Config = config

	return nil
}

// AuthorizerFactory creates a new auth.Authorizer.
type AuthorizerFactory interface {
	CreateAuthorizer(d directory.Directory) (auth.Authorizer, error)
	Validate() error
}

type namespaceAuthorizer struct {
	DefaultNamespace string `mapstructure:"defaultNamespace"`
	AllowAnonymous   bool   `mapstructure:"allowAnonymous"`
}

func (c namespaceAuthorizer) CreateAuthorizer(d directory.Directory) (auth.Authorizer, error) {
	return authz.NewNamespaceAuthorizer(d, c.DefaultNamespace, c.AllowAnonymous), nil
}

func (c namespaceAuthorizer) Validate() error {
	return nil
}
