package auth

import (
	"fmt"
	"strings"
)

// Resource describes a resource by type and name.
type Resource struct {
	Type  string `json:"type"`
	Class string `json:"class,omitempty"`
	Name  string `json:"name"`
}

// Scope describes the requested (or granted) actions on a single resource,
// as defined in the [Token Scope Documentation].
//
// [Token Scope Documentation]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/scope.md
type Scope struct {
	Resource
	Actions []string `json:"actions"`
}

func (s Scope) String() string {
	resourceType := s.Type
	if s.Class != "" {
		resourceType = fmt.Sprintf("%s(%s)", resourceType, s.Class)
	}

	return fmt.Sprintf("%s:%s:%s", resourceType, s.Name, strings.Join(s.Actions, ","))
}

// Scopes is an ordered list of scopes.
type Scopes []Scope

func (s Scopes) String() string {
	scopes := make([]string, 0, len(s))
	for _, scope := range s {
		scopes = append(scopes, scope.String())
	}

	return strings.Join(scopes, " ")
}

// ParseScope parses a single scope segment.
//
// The resource name may itself contain colons (eg. a host:port registry
// prefix): the resource type is everything before the first colon, the
// actions everything after the last one.
//
// Only the "repository" resource type is recognized; anything else is
// rejected with ErrMalformedScope.
func ParseScope(scope string) (Scope, error) {
	parts := strings.Split(scope, ":")
	if len(parts) < 3 {
		return Scope{}, fmt.Errorf("%w: %q", ErrMalformedScope, scope)
	}

	resourceType, resourceClass := splitResourceType(parts[0])
	if resourceType != "repository" {
		return Scope{}, fmt.Errorf("%w: unsupported resource type %q", ErrMalformedScope, parts[0])
	}

	resourceName := strings.Join(parts[1:len(parts)-1], ":")
	if resourceName == "" || resourceName != strings.TrimSpace(resourceName) {
		return Scope{}, fmt.Errorf("%w: %q", ErrMalformedScope, scope)
	}

	var actions []string
	for _, action := range strings.Split(parts[len(parts)-1], ",") {
		action = strings.TrimSpace(action)
		if action == "" {
			continue
		}

		actions = append(actions, action)
	}

	if len(actions) == 0 {
		return Scope{}, fmt.Errorf("%w: %q", ErrMalformedScope, scope)
	}

	return Scope{
		Resource: Resource{
			Type:  resourceType,
			Class: resourceClass,
			Name:  resourceName,
		},
		Actions: actions,
	}, nil
}

func splitResourceType(resourceType string) (string, string) {
	open := strings.IndexByte(resourceType, '(')
	if open == -1 || !strings.HasSuffix(resourceType, ")") {
		return resourceType, ""
	}

	return resourceType[:open], resourceType[open+1 : len(resourceType)-1]
}

// ParseScopes parses the (possibly repeated, possibly space separated) scope
// parameters of a token request, preserving request order.
//
// Scopes naming the same resource are merged: the later occurrence's actions
// are appended to the earlier one, then duplicates are removed keeping the
// order of first appearance.
func ParseScopes(rawScopes []string) (Scopes, error) {
	scopes := make(Scopes, 0, len(rawScopes))
	index := make(map[Resource]int, len(rawScopes))

	for _, rawScope := range rawScopes {
		for _, segment := range strings.Fields(rawScope) {
			scope, err := ParseScope(segment)
			if err != nil {
				return nil, err
			}

			if i, ok := index[scope.Resource]; ok {
				scopes[i].Actions = append(scopes[i].Actions, scope.Actions...)

				continue
			}

			index[scope.Resource] = len(scopes)
			scopes = append(scopes, scope)
		}
	}

	for i := range scopes {
		scopes[i].Actions = dedupeActions(scopes[i].Actions)
	}

	return scopes, nil
}

func dedupeActions(actions []string) []string {
	seen := make(map[string]struct{}, len(actions))
	deduped := make([]string, 0, len(actions))

	for _, action := range actions {
		if _, ok := seen[action]; ok {
			continue
		}

		seen[action] = struct{}{}
		deduped = append(deduped, action)
	}

	return deduped
}
