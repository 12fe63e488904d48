package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/registry-auth/auth"
	"github.com/quayside/registry-auth/auth/directory"
	"github.com/quayside/registry-auth/pkg/option"
)

type subjectStub struct {
	id string
}

func (s subjectStub) ID() string {
	return s.id
}

func (s subjectStub) Attribute(_ string) (string, bool) {
	return "", false
}

func (s subjectStub) Attributes() map[string]string {
	return nil
}

func newTestDirectory() *directory.InMemory {
	users := []directory.User{
		{ID: "root", Username: "root", Enabled: true, Admin: true},
		{ID: "owner", Username: "owner", Enabled: true},
		{ID: "contributor", Username: "contributor", Enabled: true},
		{ID: "viewer", Username: "viewer", Enabled: true},
		{ID: "outsider", Username: "outsider", Enabled: true},
	}

	namespaces := []directory.Namespace{
		{Name: "pub", TeamID: "team", Visibility: directory.VisibilityPublic},
		{Name: "priv", TeamID: "team", Visibility: directory.VisibilityPrivate},
		{Name: "prot", TeamID: "team", Visibility: directory.VisibilityProtected},
		{Name: "library", Visibility: directory.VisibilityPublic},
	}

	memberships := []directory.Membership{
		{TeamID: "team", UserID: "owner", Role: directory.RoleOwner},
		{TeamID: "team", UserID: "contributor", Role: directory.RoleContributor},
		{TeamID: "team", UserID: "viewer", Role: directory.RoleViewer},
	}

	return directory.NewInMemory(users, namespaces, memberships)
}

func scopes(t *testing.T, rawScopes ...string) auth.Scopes {
	t.Helper()

	parsed, err := auth.ParseScopes(rawScopes)
	require.NoError(t, err)

	return parsed
}

func TestNamespaceAuthorizer(t *testing.T) {
	anonymous := option.None[auth.Subject]()

	testCases := []struct {
		name            string
		subject         option.Option[auth.Subject]
		scope           string
		expectedActions []string
	}{
		{
			name:            "AnonymousPullsPublic",
			subject:         anonymous,
			scope:           "repository:pub/img:pull,push",
			expectedActions: []string{"pull"},
		},
		{
			name:            "AnonymousDeniedPrivate",
			subject:         anonymous,
			scope:           "repository:priv/img:pull",
			expectedActions: []string{},
		},
		{
			name:            "AnonymousDeniedProtected",
			subject:         anonymous,
			scope:           "repository:prot/img:pull",
			expectedActions: []string{},
		},
		{
			name:            "AdminBypass",
			subject:         option.Some[auth.Subject](subjectStub{id: "root"}),
			scope:           "repository:priv/img:pull,push,delete",
			expectedActions: []string{"pull", "push", "delete"},
		},
		{
			name:            "AdminBypassWildcard",
			subject:         option.Some[auth.Subject](subjectStub{id: "root"}),
			scope:           "repository:priv/img:pull,*",
			expectedActions: []string{"pull", "*"},
		},
		{
			name:            "OwnerGetsEverything",
			subject:         option.Some[auth.Subject](subjectStub{id: "owner"}),
			scope:           "repository:priv/img:pull,push,delete",
			expectedActions: []string{"pull", "push", "delete"},
		},
		{
			name:            "OwnerGetsWildcard",
			subject:         option.Some[auth.Subject](subjectStub{id: "owner"}),
			scope:           "repository:priv/img:pull,*",
			expectedActions: []string{"pull", "*"},
		},
		{
			name:            "ContributorCannotDelete",
			subject:         option.Some[auth.Subject](subjectStub{id: "contributor"}),
			scope:           "repository:priv/img:pull,push,delete",
			expectedActions: []string{"pull", "push"},
		},
		{
			name:            "ViewerPullsPrivate",
			subject:         option.Some[auth.Subject](subjectStub{id: "viewer"}),
			scope:           "repository:priv/img:pull,push,delete",
			expectedActions: []string{"pull"},
		},
		{
			name:            "OutsiderPullsPublic",
			subject:         option.Some[auth.Subject](subjectStub{id: "outsider"}),
			scope:           "repository:pub/img:pull,push,delete",
			expectedActions: []string{"pull"},
		},
		{
			name:            "OutsiderDeniedPrivate",
			subject:         option.Some[auth.Subject](subjectStub{id: "outsider"}),
			scope:           "repository:priv/img:pull,push",
			expectedActions: []string{},
		},
		{
			name:            "OutsiderDeniedProtected",
			subject:         option.Some[auth.Subject](subjectStub{id: "outsider"}),
			scope:           "repository:prot/img:pull",
			expectedActions: []string{},
		},
		{
			name:            "PushCreatesOwnNamespace",
			subject:         option.Some[auth.Subject](subjectStub{id: "outsider"}),
			scope:           "repository:outsider/app:pull,push,delete",
			expectedActions: []string{"pull", "push", "delete"},
		},
		{
			name:            "ForeignUnknownNamespaceDenied",
			subject:         option.Some[auth.Subject](subjectStub{id: "outsider"}),
			scope:           "repository:somebody/app:pull,push",
			expectedActions: []string{},
		},
		{
			name:            "AnonymousUnknownNamespaceDenied",
			subject:         anonymous,
			scope:           "repository:somebody/app:pull",
			expectedActions: []string{},
		},
		{
			name:            "BareNameUsesDefaultNamespace",
			subject:         anonymous,
			scope:           "repository:busybox:pull,push",
			expectedActions: []string{"pull"},
		},
		{
			name:            "RequestOrderPreserved",
			subject:         option.Some[auth.Subject](subjectStub{id: "owner"}),
			scope:           "repository:priv/img:push,pull",
			expectedActions: []string{"push", "pull"},
		},
		{
			name:            "UnknownActionDropped",
			subject:         option.Some[auth.Subject](subjectStub{id: "owner"}),
			scope:           "repository:priv/img:pull,admin",
			expectedActions: []string{"pull"},
		},
	}

	authorizer := NewNamespaceAuthorizer(newTestDirectory(), "", true)

	for _, testCase := range testCases {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			requestedScopes := scopes(t, testCase.scope)

			grantedScopes, err := authorizer.Authorize(context.Background(), testCase.subject, requestedScopes)
			require.NoError(t, err)

			require.Len(t, grantedScopes, 1)
			assert.Equal(t, requestedScopes[0].Resource, grantedScopes[0].Resource)
			assert.Equal(t, testCase.expectedActions, grantedScopes[0].Actions)
		})
	}
}

func TestNamespaceAuthorizer_MultipleScopes(t *testing.T) {
	authorizer := NewNamespaceAuthorizer(newTestDirectory(), "", true)

	requestedScopes := scopes(t,
		"repository:pub/img:pull,push",
		"repository:priv/img:pull",
		"repository:pub/other:pull",
	)

	grantedScopes, err := authorizer.Authorize(context.Background(), option.None[auth.Subject](), requestedScopes)
	require.NoError(t, err)

	// one entry per requested scope, in request order, denied scopes included with zero actions
	require.Len(t, grantedScopes, 3)
	assert.Equal(t, []string{"pull"}, grantedScopes[0].Actions)
	assert.Equal(t, []string{}, grantedScopes[1].Actions)
	assert.Equal(t, []string{"pull"}, grantedScopes[2].Actions)
}

func TestNamespaceAuthorizer_AnonymousForbidden(t *testing.T) {
	authorizer := NewNamespaceAuthorizer(newTestDirectory(), "", false)

	_, err := authorizer.Authorize(context.Background(), option.None[auth.Subject](), scopes(t, "repository:pub/img:pull"))
	require.Error(t, err)

	assert.ErrorIs(t, err, auth.ErrAuthenticationFailed)
}

func TestNamespaceAuthorizer_IdentityToken(t *testing.T) {
	authorizer := NewNamespaceAuthorizer(newTestDirectory(), "", true)

	grantedScopes, err := authorizer.Authorize(context.Background(), option.Some[auth.Subject](subjectStub{id: "viewer"}), nil)
	require.NoError(t, err)

	assert.Empty(t, grantedScopes)
}

type principalSubjectStub struct {
	subjectStub

	principal directory.Principal
}

func (s principalSubjectStub) Principal() directory.Principal {
	return s.principal
}

func TestNamespaceAuthorizer_PreloadedPrincipal(t *testing.T) {
	// the subject carries its principal, so no user lookup is needed
	authorizer := NewNamespaceAuthorizer(newTestDirectory(), "", true)

	subject := principalSubjectStub{
		subjectStub: subjectStub{id: "ghost"},
		principal: directory.Principal{
			User: directory.User{ID: "ghost", Username: "ghost", Enabled: true},
			Memberships: []directory.Membership{
				{TeamID: "team", UserID: "ghost", Role: directory.RoleContributor},
			},
		},
	}

	grantedScopes, err := authorizer.Authorize(context.Background(), option.Some[auth.Subject](subject), scopes(t, "repository:priv/img:pull,push,delete"))
	require.NoError(t, err)

	require.Len(t, grantedScopes, 1)
	assert.Equal(t, []string{"pull", "push"}, grantedScopes[0].Actions)
}

func TestNamespaceAuthorizer_MostPermissiveRoleWins(t *testing.T) {
	users := []directory.User{
		{ID: "both", Username: "both", Enabled: true},
	}
	namespaces := []directory.Namespace{
		{Name: "priv", TeamID: "team", Visibility: directory.VisibilityPrivate},
	}
	memberships := []directory.Membership{
		{TeamID: "team", UserID: "both", Role: directory.RoleViewer},
		{TeamID: "team", UserID: "both", Role: directory.RoleOwner},
	}

	authorizer := NewNamespaceAuthorizer(directory.NewInMemory(users, namespaces, memberships), "", true)

	grantedScopes, err := authorizer.Authorize(context.Background(), option.Some[auth.Subject](subjectStub{id: "both"}), scopes(t, "repository:priv/img:pull,push,delete"))
	require.NoError(t, err)

	require.Len(t, grantedScopes, 1)
	assert.Equal(t, []string{"pull", "push", "delete"}, grantedScopes[0].Actions)
}
