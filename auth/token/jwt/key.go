package jwt

import (
	"fmt"

	"github.com/docker/libtrust"
	"github.com/golang-jwt/jwt/v4"

	"github.com/quayside/registry-auth/auth"
)

// SigningKeyProvider supplies the key pair used to sign tokens.
//
// CurrentKey may return a different key between calls after a rotation.
// Rotation only affects new issuances: tokens already issued keep validating
// under the old public key until the registry's trust store is updated.
type SigningKeyProvider interface {
	CurrentKey() (libtrust.PrivateKey, error)
}

// StaticKeyProvider always returns the same key.
// It is safe for unlimited concurrent readers.
type StaticKeyProvider struct {
	key libtrust.PrivateKey
}

// NewStaticKeyProvider returns a new StaticKeyProvider.
func NewStaticKeyProvider(key libtrust.PrivateKey) StaticKeyProvider {
	return StaticKeyProvider{
		key: key,
	}
}

// CurrentKey implements the SigningKeyProvider interface.
func (p StaticKeyProvider) CurrentKey() (libtrust.PrivateKey, error) {
	if p.key == nil {
		return nil, auth.ErrSigningUnavailable
	}

	return p.key, nil
}

// LoadKeyFile loads a PEM or JWK encoded private key from a file.
func LoadKeyFile(path string) (StaticKeyProvider, error) {
	key, err := libtrust.LoadKeyFile(path)
	if err != nil {
		return StaticKeyProvider{}, fmt.Errorf("%w: loading key file %q: %v", auth.ErrSigningUnavailable, path, err)
	}

	return NewStaticKeyProvider(key), nil
}

func detectSigningMethod(signingKey libtrust.PrivateKey) (jwt.SigningMethod, error) {
	switch signingKey.KeyType() {
	case "RSA":
		return jwt.SigningMethodRS256, nil
	case "EC":
		return jwt.SigningMethodES256, nil
	}

	return nil, fmt.Errorf("%w: unsupported signing key type %q", auth.ErrSigningUnavailable, signingKey.KeyType())
}
