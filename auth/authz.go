package auth

import (
	"context"

	"github.com/quayside/registry-auth/pkg/option"
)

// Authorizer authorizes an access request to a list of resources (scopes) and returns the list of granted scopes.
//
// The granted list contains one entry per requested scope, in request order;
// a scope the subject has no access to is returned with an empty action list,
// it is never omitted. The granted actions of a scope are always a subset of
// the requested actions.
//
// An Authorizer never makes authentication decisions: an anonymous subject
// (option.None) with no access results in empty grants, not in an error.
type Authorizer interface {
	Authorize(ctx context.Context, subject option.Option[Subject], requestedScopes Scopes) (Scopes, error)
}
