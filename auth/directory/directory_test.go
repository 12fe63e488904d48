package directory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/registry-auth/auth"
	"github.com/quayside/registry-auth/auth/directory"
)

func TestInMemory(t *testing.T) {
	d := directory.NewInMemory(
		[]directory.User{
			{ID: "user", Username: "user", Enabled: true},
		},
		[]directory.Namespace{
			{Name: "ns", TeamID: "team", Visibility: directory.VisibilityPublic},
		},
		[]directory.Membership{
			{TeamID: "team", UserID: "user", Role: directory.RoleOwner},
		},
	)

	t.Run("FindUser", func(t *testing.T) {
		user, found, err := d.FindUser(context.Background(), "user")
		require.NoError(t, err)
		require.True(t, found)

		assert.Equal(t, "user", user.Username)

		_, found, err = d.FindUser(context.Background(), "nobody")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("FindNamespace", func(t *testing.T) {
		namespace, found, err := d.FindNamespace(context.Background(), "ns")
		require.NoError(t, err)
		require.True(t, found)

		assert.Equal(t, directory.VisibilityPublic, namespace.Visibility)

		_, found, err = d.FindNamespace(context.Background(), "unknown")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("MembershipsOf", func(t *testing.T) {
		memberships, err := d.MembershipsOf(context.Background(), "user")
		require.NoError(t, err)

		require.Len(t, memberships, 1)
		assert.Equal(t, directory.RoleOwner, memberships[0].Role)

		memberships, err = d.MembershipsOf(context.Background(), "nobody")
		require.NoError(t, err)
		assert.Empty(t, memberships)
	})
}

func TestPrincipal_RoleIn(t *testing.T) {
	principal := directory.Principal{
		Memberships: []directory.Membership{
			{TeamID: "team", UserID: "user", Role: directory.RoleViewer},
			{TeamID: "team", UserID: "user", Role: directory.RoleContributor},
			{TeamID: "other", UserID: "user", Role: directory.RoleOwner},
		},
	}

	role, found := principal.RoleIn("team")
	require.True(t, found)
	assert.Equal(t, directory.RoleContributor, role)

	role, found = principal.RoleIn("other")
	require.True(t, found)
	assert.Equal(t, directory.RoleOwner, role)

	_, found = principal.RoleIn("unknown")
	assert.False(t, found)
}

func TestRole(t *testing.T) {
	assert.False(t, directory.RoleViewer.CanPush())
	assert.False(t, directory.RoleViewer.CanDelete())

	assert.True(t, directory.RoleContributor.CanPush())
	assert.False(t, directory.RoleContributor.CanDelete())

	assert.True(t, directory.RoleOwner.CanPush())
	assert.True(t, directory.RoleOwner.CanDelete())

	role, err := directory.ParseRole("contributor")
	require.NoError(t, err)
	assert.Equal(t, directory.RoleContributor, role)

	_, err = directory.ParseRole("emperor")
	require.Error(t, err)
}

func TestVisibility(t *testing.T) {
	for _, name := range []string{"private", "protected", "public"} {
		visibility, err := directory.ParseVisibility(name)
		require.NoError(t, err)

		assert.Equal(t, name, visibility.String())
	}

	_, err := directory.ParseVisibility("hidden")
	require.Error(t, err)
}

// blockingDirectory blocks every lookup until the context expires.
type blockingDirectory struct{}

func (blockingDirectory) FindUser(ctx context.Context, _ string) (directory.User, bool, error) {
	<-ctx.Done()

	return directory.User{}, false, ctx.Err()
}

func (blockingDirectory) FindNamespace(ctx context.Context, _ string) (directory.Namespace, bool, error) {
	<-ctx.Done()

	return directory.Namespace{}, false, ctx.Err()
}

func (blockingDirectory) MembershipsOf(ctx context.Context, _ string) ([]directory.Membership, error) {
	<-ctx.Done()

	return nil, ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	t.Run("Expired", func(t *testing.T) {
		d := directory.WithTimeout(blockingDirectory{}, time.Millisecond)

		_, _, err := d.FindUser(context.Background(), "user")
		assert.ErrorIs(t, err, auth.ErrUpstreamUnavailable)

		_, _, err = d.FindNamespace(context.Background(), "ns")
		assert.ErrorIs(t, err, auth.ErrUpstreamUnavailable)

		_, err = d.MembershipsOf(context.Background(), "user")
		assert.ErrorIs(t, err, auth.ErrUpstreamUnavailable)
	})

	t.Run("Passthrough", func(t *testing.T) {
		d := directory.WithTimeout(directory.NewInMemory([]directory.User{{ID: "user", Username: "user"}}, nil, nil), time.Second)

		user, found, err := d.FindUser(context.Background(), "user")
		require.NoError(t, err)
		require.True(t, found)

		assert.Equal(t, "user", user.Username)
	})
}
