// Package authz provides authorizer implementations.
package authz

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/quayside/registry-auth/auth"
	"github.com/quayside/registry-auth/auth/directory"
	"github.com/quayside/registry-auth/pkg/option"
)

// Repository actions.
const (
	ActionPull   = "pull"
	ActionPush   = "push"
	ActionDelete = "delete"

	// ActionAny is the wildcard action; granting it is equivalent to granting delete.
	ActionAny = "*"
)

// DefaultNamespace is where bare repository names (no "/" separator) live.
const DefaultNamespace = "library"

// NamespaceAuthorizer grants repository actions based on the visibility of
// the repository's namespace and the subject's role in the owning team:
//
//   - admins are granted every requested action
//   - owners may pull, push and delete
//   - contributors may pull and push
//   - viewers may pull, even from private namespaces
//   - everyone else may pull from public namespaces only
//
// A namespace that does not exist yet belongs to the authenticated user of
// the same name, mirroring the "push creates the namespace" flow.
type NamespaceAuthorizer struct {
	directory        directory.Directory
	defaultNamespace string
	allowAnonymous   bool
}

// NewNamespaceAuthorizer returns a new NamespaceAuthorizer.
func NewNamespaceAuthorizer(d directory.Directory, defaultNamespace string, allowAnonymous bool) NamespaceAuthorizer {
	if defaultNamespace == "" {
		defaultNamespace = DefaultNamespace
	}

	return NamespaceAuthorizer{
		directory:        d,
		defaultNamespace: defaultNamespace,
		allowAnonymous:   allowAnonymous,
	}
}

// Authorize implements the auth.Authorizer interface.
//
// Scopes are independent of each other, so they are evaluated concurrently;
// the granted list preserves request order. Any scope failing to evaluate
// fails the whole request: no partial results are returned.
func (a NamespaceAuthorizer) Authorize(ctx context.Context, subject option.Option[auth.Subject], requestedScopes auth.Scopes) (auth.Scopes, error) {
	if !a.allowAnonymous && !subject.HasValue() {
		return nil, auth.ErrAuthenticationFailed
	}

	grantedScopes := make(auth.Scopes, len(requestedScopes))

	group, groupCtx := errgroup.WithContext(ctx)

	for i, scope := range requestedScopes {
		i, scope := i, scope

		group.Go(func() error {
			grantedActions, err := a.authorizeRepository(groupCtx, scope.Name, subject, scope.Actions)
			if err != nil {
				return err
			}

			scope.Actions = grantedActions
			grantedScopes[i] = scope

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return grantedScopes, nil
}

func (a NamespaceAuthorizer) authorizeRepository(ctx context.Context, name string, subject option.Option[auth.Subject], requestedActions []string) ([]string, error) {
	namespaceName := a.namespaceOf(name)

	namespace, found, err := a.directory.FindNamespace(ctx, namespaceName)
	if err != nil {
		return nil, err
	}

	var principal directory.Principal

	if subject.HasValue() {
		principal, err = a.resolvePrincipal(ctx, subject.Value())
		if err != nil {
			return nil, err
		}

		if principal.User.Admin {
			return dedupe(requestedActions), nil
		}
	}

	role, hasRole := a.resolveRole(subject, principal, namespace, namespaceName, found)

	return filterActions(requestedActions, func(action string) bool {
		if hasRole {
			switch action {
			case ActionPull:
				return true
			case ActionPush:
				return role.CanPush()
			case ActionDelete, ActionAny:
				return role.CanDelete()
			}

			return false
		}

		return found && namespace.Visibility == directory.VisibilityPublic && action == ActionPull
	}), nil
}

func (a NamespaceAuthorizer) namespaceOf(repository string) string {
	namespace, _, found := strings.Cut(repository, "/")
	if !found {
		return a.defaultNamespace
	}

	return namespace
}

// resolvePrincipal prefers the principal loaded at authentication time;
// subjects authenticated elsewhere fall back to a directory lookup.
// A subject unknown to the directory resolves to an empty principal:
// no memberships, no rights beyond public pull.
func (a NamespaceAuthorizer) resolvePrincipal(ctx context.Context, subject auth.Subject) (directory.Principal, error) {
	if holder, ok := subject.(interface{ Principal() directory.Principal }); ok {
		return holder.Principal(), nil
	}

	user, found, err := a.directory.FindUser(ctx, subject.ID())
	if err != nil || !found {
		return directory.Principal{}, err
	}

	memberships, err := a.directory.MembershipsOf(ctx, user.ID)
	if err != nil {
		return directory.Principal{}, err
	}

	return directory.Principal{
		User:        user,
		Memberships: memberships,
	}, nil
}

func (a NamespaceAuthorizer) resolveRole(subject option.Option[auth.Subject], principal directory.Principal, namespace directory.Namespace, namespaceName string, found bool) (directory.Role, bool) {
	if !subject.HasValue() {
		return 0, false
	}

	if !found {
		// push creates the namespace, but only the user's own
		if namespaceName == auth.GetSubjectName(subject.Value()) {
			return directory.RoleOwner, true
		}

		return 0, false
	}

	if namespace.TeamID == "" {
		return 0, false
	}

	return principal.RoleIn(namespace.TeamID)
}

func filterActions(actions []string, allowed func(action string) bool) []string {
	granted := make([]string, 0, len(actions))
	seen := make(map[string]struct{}, len(actions))

	for _, action := range actions {
		if _, ok := seen[action]; ok {
			continue
		}
		seen[action] = struct{}{}

		if allowed(action) {
			granted = append(granted, action)
		}
	}

	return granted
}

func dedupe(actions []string) []string {
	return filterActions(actions, func(string) bool { return true })
}
