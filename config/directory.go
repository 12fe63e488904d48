package config

import (
	"fmt"
	"time"

	"github.com/quayside/registry-auth/auth/directory"
	"github.com/quayside/registry-auth/pkg/slices"
)

// Directory is the configuration for the user/team/namespace directory.
type Directory struct {
	Users      []directoryUser      `yaml:"users"`
	Teams      []directoryTeam      `yaml:"teams"`
	Namespaces []directoryNamespace `yaml:"namespaces"`

	// LookupTimeout bounds every directory lookup. Zero disables the bound.
	LookupTimeout time.Duration `yaml:"lookupTimeout"`
}

type directoryUser struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"passwordHash"`
	Enabled      bool   `yaml:"enabled"`
	Admin        bool   `yaml:"admin"`

	ApplicationTokens []directoryApplicationToken `yaml:"applicationTokens"`
}

type directoryApplicationToken struct {
	ID         string `yaml:"id"`
	SecretHash string `yaml:"secretHash"`
}

type directoryTeam struct {
	Name    string            `yaml:"name"`
	Members []directoryMember `yaml:"members"`
}

type directoryMember struct {
	User string `yaml:"user"`
	Role string `yaml:"role"`
}

type directoryNamespace struct {
	Name       string `yaml:"name"`
	Team       string `yaml:"team"`
	Visibility string `yaml:"visibility"`
}

// CreateDirectory creates a new directory from the configured entries.
func (c Directory) CreateDirectory() (directory.Directory, error) {
	users := slices.Map(c.Users, func(u directoryUser) directory.User {
		return directory.User{
			ID:           u.Username,
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			Enabled:      u.Enabled,
			Admin:        u.Admin,
			ApplicationTokens: slices.Map(u.ApplicationTokens, func(t directoryApplicationToken) directory.ApplicationToken {
				return directory.ApplicationToken{
					ID:         t.ID,
					SecretHash: t.SecretHash,
				}
			}),
		}
	})

	var memberships []directory.Membership

	for _, team := range c.Teams {
		for _, member := range team.Members {
			role, err := directory.ParseRole(member.Role)
			if err != nil {
				return nil, err
			}

			memberships = append(memberships, directory.Membership{
				TeamID: team.Name,
				UserID: member.User,
				Role:   role,
			})
		}
	}

	namespaces := make([]directory.Namespace, 0, len(c.Namespaces))

	for _, namespace := range c.Namespaces {
		visibility, err := directory.ParseVisibility(namespace.Visibility)
		if err != nil {
			return nil, err
		}

		namespaces = append(namespaces, directory.Namespace{
			Name:       namespace.Name,
			TeamID:     namespace.Team,
			Visibility: visibility,
		})
	}

	d := directory.Directory(directory.NewInMemory(users, namespaces, memberships))

	if c.LookupTimeout > 0 {
		d = directory.WithTimeout(d, c.LookupTimeout)
	}

	return d, nil
}

// Validate validates the configuration.
func (c Directory) Validate() error {
	usernames := make(map[string]struct{}, len(c.Users))

	for i, user := range c.Users {
		if user.Username == "" {
			return fmt.Errorf("directory: user[%d]: username is required", i)
		}

		if user.PasswordHash == "" {
			return fmt.Errorf("directory: user %q: password hash is required", user.Username)
		}

		if _, dup := usernames[user.Username]; dup {
			return fmt.Errorf("directory: duplicate user %q", user.Username)
		}
		usernames[user.Username] = struct{}{}
	}

	teams := make(map[string]struct{}, len(c.Teams))

	for i, team := range c.Teams {
		if team.Name == "" {
			return fmt.Errorf("directory: team[%d]: name is required", i)
		}

		teams[team.Name] = struct{}{}

		for _, member := range team.Members {
			if _, ok := usernames[member.User]; !ok {
				return fmt.Errorf("directory: team %q: unknown member %q", team.Name, member.User)
			}

			if _, err := directory.ParseRole(member.Role); err != nil {
				return fmt.Errorf("directory: team %q: %v", team.Name, err)
			}
		}
	}

	for i, namespace := range c.Namespaces {
		if namespace.Name == "" {
			return fmt.Errorf("directory: namespace[%d]: name is required", i)
		}

		if namespace.Team != "" {
			if _, ok := teams[namespace.Team]; !ok {
				return fmt.Errorf("directory: namespace %q: unknown team %q", namespace.Name, namespace.Team)
			}
		}

		if _, err := directory.ParseVisibility(namespace.Visibility); err != nil {
			return fmt.Errorf("directory: namespace %q: %v", namespace.Name, err)
		}
	}

	return nil
}
