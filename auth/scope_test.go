package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/registry-auth/auth"
)

func TestParseScope(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		testCases := []struct {
			scope    string
			expected auth.Scope
		}{
			{
				"repository:path/to/repo:pull,push",
				auth.Scope{
					Resource: auth.Resource{
						Type: "repository",
						Name: "path/to/repo",
					},
					Actions: []string{"pull", "push"},
				},
			},
			{
				"repository:path/to/repo: pull , push ",
				auth.Scope{
					Resource: auth.Resource{
						Type: "repository",
						Name: "path/to/repo",
					},
					Actions: []string{"pull", "push"},
				},
			},
			{
				"repository(class):path/to/repo:pull",
				auth.Scope{
					Resource: auth.Resource{
						Type:  "repository",
						Class: "class",
						Name:  "path/to/repo",
					},
					Actions: []string{"pull"},
				},
			},
			{
				"repository:registry.example.com:5000/path/to/repo:pull",
				auth.Scope{
					Resource: auth.Resource{
						Type: "repository",
						Name: "registry.example.com:5000/path/to/repo",
					},
					Actions: []string{"pull"},
				},
			},
			{
				"repository:path/to/repo:pull,push,pull", // duplicates are allowed within a single segment
				auth.Scope{
					Resource: auth.Resource{
						Type: "repository",
						Name: "path/to/repo",
					},
					Actions: []string{"pull", "push", "pull"},
				},
			},
		}

		for _, testCase := range testCases {
			testCase := testCase

			t.Run("", func(t *testing.T) {
				actual, err := auth.ParseScope(testCase.scope)
				require.NoError(t, err)

				assert.Equal(t, testCase.expected, actual)
			})
		}
	})

	t.Run("Error", func(t *testing.T) {
		testCases := []string{
			"repo:bad",
			"repo:bad:pull",
			"registry:catalog:*",
			"repository:path/to/repo",
			"repository : path/to/repo : pull , push ",
			"repository:path/to/repo:",
			"repository:path/to/repo: , ",
			"repository::pull",
		}

		for _, testCase := range testCases {
			testCase := testCase

			t.Run("", func(t *testing.T) {
				_, err := auth.ParseScope(testCase)
				require.Error(t, err)

				assert.ErrorIs(t, err, auth.ErrMalformedScope)
			})
		}
	})
}

func TestParseScopes(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		testCases := []struct {
			rawScopes []string
			expected  auth.Scopes
		}{
			{
				nil,
				auth.Scopes{},
			},
			{
				[]string{""},
				auth.Scopes{},
			},
			{
				[]string{"repository:a/b:pull", "repository:c/d:push"},
				auth.Scopes{
					{
						Resource: auth.Resource{Type: "repository", Name: "a/b"},
						Actions:  []string{"pull"},
					},
					{
						Resource: auth.Resource{Type: "repository", Name: "c/d"},
						Actions:  []string{"push"},
					},
				},
			},
			{
				// space separated scopes within a single parameter
				[]string{"repository:a/b:pull repository:c/d:push"},
				auth.Scopes{
					{
						Resource: auth.Resource{Type: "repository", Name: "a/b"},
						Actions:  []string{"pull"},
					},
					{
						Resource: auth.Resource{Type: "repository", Name: "c/d"},
						Actions:  []string{"push"},
					},
				},
			},
			{
				// same resource twice: actions appended, deduplicated, first appearance order kept
				[]string{"repository:a/b:pull,push", "repository:a/b:pull,delete"},
				auth.Scopes{
					{
						Resource: auth.Resource{Type: "repository", Name: "a/b"},
						Actions:  []string{"pull", "push", "delete"},
					},
				},
			},
		}

		for _, testCase := range testCases {
			testCase := testCase

			t.Run("", func(t *testing.T) {
				actual, err := auth.ParseScopes(testCase.rawScopes)
				require.NoError(t, err)

				assert.Equal(t, testCase.expected, actual)
			})
		}
	})

	t.Run("Error", func(t *testing.T) {
		_, err := auth.ParseScopes([]string{"repository:a/b:pull", "repo:bad"})
		require.Error(t, err)

		assert.ErrorIs(t, err, auth.ErrMalformedScope)
	})
}

func TestScope_String(t *testing.T) {
	testCases := []struct {
		scope    auth.Scope
		expected string
	}{
		{
			auth.Scope{
				Resource: auth.Resource{Type: "repository", Name: "path/to/repo"},
				Actions:  []string{"pull", "push"},
			},
			"repository:path/to/repo:pull,push",
		},
		{
			auth.Scope{
				Resource: auth.Resource{Type: "repository", Class: "class", Name: "path/to/repo"},
				Actions:  []string{"pull"},
			},
			"repository(class):path/to/repo:pull",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase

		t.Run("", func(t *testing.T) {
			assert.Equal(t, testCase.expected, testCase.scope.String())
		})
	}
}

func TestScopes_String(t *testing.T) {
	scopes := auth.Scopes{
		{
			Resource: auth.Resource{Type: "repository", Name: "a/b"},
			Actions:  []string{"pull"},
		},
		{
			Resource: auth.Resource{Type: "repository", Name: "c/d"},
			Actions:  []string{"pull", "push"},
		},
	}

	assert.Equal(t, "repository:a/b:pull repository:c/d:pull,push", scopes.String())
}
