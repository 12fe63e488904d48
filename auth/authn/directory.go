// Package authn provides authenticator implementations backed by a directory.
package authn

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/maps"

	"github.com/quayside/registry-auth/auth"
	"github.com/quayside/registry-auth/auth/directory"
)

// subject carries the resolved principal, so authorizers get the full
// membership set without a second directory round trip.
type subject struct {
	principal  directory.Principal
	attributes map[string]string
}

func (s subject) ID() string {
	return s.principal.User.Username
}

func (s subject) Attribute(key string) (string, bool) {
	if s.attributes == nil {
		return "", false
	}

	v, ok := s.attributes[key]

	return v, ok
}

func (s subject) Attributes() map[string]string {
	return maps.Clone(s.attributes)
}

func (s subject) Principal() directory.Principal {
	return s.principal
}

// dummyPasswordHash is compared against on failure paths so that unknown and
// disabled users burn the same bcrypt work as a wrong password does.
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("quayside-registry-auth"), bcrypt.DefaultCost)

// DirectoryAuthenticator authenticates basic-auth credentials against a directory.
//
// The password is verified against the user's password hash first and the
// user's application token hashes second, so an application token can be
// presented wherever a password is expected.
type DirectoryAuthenticator struct {
	directory directory.Directory
}

// NewDirectoryAuthenticator returns a new DirectoryAuthenticator.
func NewDirectoryAuthenticator(d directory.Directory) DirectoryAuthenticator {
	return DirectoryAuthenticator{
		directory: d,
	}
}

// AuthenticatePassword implements the auth.PasswordAuthenticator interface.
func (a DirectoryAuthenticator) AuthenticatePassword(ctx context.Context, username string, password string) (auth.Subject, error) {
	user, found, err := a.directory.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if !found || !user.Enabled {
		bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))

		return nil, auth.ErrAuthenticationFailed
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil && !matchApplicationToken(user, password) {
		return nil, auth.ErrAuthenticationFailed
	}

	return resolveSubject(ctx, a.directory, user)
}

func matchApplicationToken(user directory.User, secret string) bool {
	for _, token := range user.ApplicationTokens {
		if bcrypt.CompareHashAndPassword([]byte(token.SecretHash), []byte(secret)) == nil {
			return true
		}
	}

	return false
}

func resolveSubject(ctx context.Context, d directory.Directory, user directory.User) (auth.Subject, error) {
	memberships, err := d.MembershipsOf(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return subject{
		principal: directory.Principal{
			User:        user,
			Memberships: memberships,
		},
		attributes: map[string]string{
			auth.SubjectType: "user",
		},
	}, nil
}

// RefreshTokenAuthenticator resolves the subject of a verified refresh token
// against a directory, so that tokens of since-disabled accounts stop working.
type RefreshTokenAuthenticator struct {
	verifier  auth.RefreshTokenVerifier
	directory directory.Directory
}

// NewRefreshTokenAuthenticator returns a new RefreshTokenAuthenticator.
func NewRefreshTokenAuthenticator(verifier auth.RefreshTokenVerifier, d directory.Directory) RefreshTokenAuthenticator {
	return RefreshTokenAuthenticator{
		verifier:  verifier,
		directory: d,
	}
}

// AuthenticateRefreshToken implements the auth.RefreshTokenAuthenticator interface.
func (a RefreshTokenAuthenticator) AuthenticateRefreshToken(ctx context.Context, service string, refreshToken string) (auth.Subject, error) {
	username, err := a.verifier.VerifyRefreshToken(ctx, service, refreshToken)
	if err != nil {
		return nil, err
	}

	user, found, err := a.directory.FindUser(ctx, username)
	if err != nil {
		return nil, err
	}

	if !found || !user.Enabled {
		return nil, auth.ErrAuthenticationFailed
	}

	return resolveSubject(ctx, a.directory, user)
}
