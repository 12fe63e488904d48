package auth

import "errors"

// ErrMalformedScope is returned when a requested scope does not follow
// the type:name:action[,action...] grammar or names an unsupported resource type.
var ErrMalformedScope = errors.New("malformed scope")

// ErrInvalidRequest is returned when a request is missing a required parameter
// (eg. service) or carries an unsupported parameter value (eg. grant_type).
var ErrInvalidRequest = errors.New("invalid request")

// ErrAuthenticationFailed is returned when authentication fails.
//
// This error should only be returned if credential verification fails.
// Any other error (eg. connection problems) should be returned directly.
var ErrAuthenticationFailed = errors.New("authentication failed")

// ErrNoAccessGranted is returned when the boundary policy requires a non-empty
// grant, but every requested scope resolved to zero actions.
var ErrNoAccessGranted = errors.New("no access granted")

// ErrUpstreamUnavailable is returned when a directory lookup times out or the
// directory is otherwise unreachable. The request fails closed: no token is
// issued, but the client may safely retry.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// ErrSigningUnavailable is returned when the signing key material cannot be
// loaded or used. The request fails closed: a token is never issued unsigned.
var ErrSigningUnavailable = errors.New("signing unavailable")
