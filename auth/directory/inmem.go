package directory

import (
	"context"

	"golang.org/x/exp/slices"
)

// InMemory is a Directory serving from static, preloaded entries.
// It is safe for concurrent use: entries are never mutated after construction.
type InMemory struct {
	users       map[string]User
	namespaces  map[string]Namespace
	memberships map[string][]Membership
}

// NewInMemory returns a new InMemory directory.
func NewInMemory(users []User, namespaces []Namespace, memberships []Membership) *InMemory {
	d := &InMemory{
		users:       make(map[string]User, len(users)),
		namespaces:  make(map[string]Namespace, len(namespaces)),
		memberships: make(map[string][]Membership, len(users)),
	}

	for _, user := range users {
		user.ApplicationTokens = slices.Clone(user.ApplicationTokens)
		d.users[user.Username] = user
	}

	for _, namespace := range namespaces {
		d.namespaces[namespace.Name] = namespace
	}

	for _, membership := range memberships {
		d.memberships[membership.UserID] = append(d.memberships[membership.UserID], membership)
	}

	return d
}

// FindUser implements the Directory interface.
func (d *InMemory) FindUser(_ context.Context, username string) (User, bool, error) {
	user, ok := d.users[username]

	return user, ok, nil
}

// FindNamespace implements the Directory interface.
func (d *InMemory) FindNamespace(_ context.Context, name string) (Namespace, bool, error) {
	namespace, ok := d.namespaces[name]

	return namespace, ok, nil
}

// MembershipsOf implements the Directory interface.
func (d *InMemory) MembershipsOf(_ context.Context, userID string) ([]Membership, error) {
	return slices.Clone(d.memberships[userID]), nil
}
