package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/schema"
)

// Set a Decoder instance as a package global, because it caches
// meta-data about structs, and an instance can be shared safely.
var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

// TokenServer exposes a TokenService over HTTP according to the
// [Docker Registry v2 authentication] specification.
//
// [Docker Registry v2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/index.md
type TokenServer struct {
	Service TokenService

	// Realm is returned in the WWW-Authenticate challenge on 401 responses.
	Realm string
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s TokenServer) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMalformedScope), errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAuthenticationFailed):
		// constant shape: no detail beyond the sentinel
		w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", s.Realm))
		writeError(w, http.StatusUnauthorized, ErrAuthenticationFailed.Error())
	case errors.Is(err, ErrNoAccessGranted):
		writeError(w, http.StatusForbidden, ErrNoAccessGranted.Error())
	case errors.Is(err, ErrUpstreamUnavailable):
		writeError(w, http.StatusServiceUnavailable, ErrUpstreamUnavailable.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

type tokenQuery struct {
	Service      string `schema:"service"`
	ClientID     string `schema:"client_id"`
	OfflineToken bool   `schema:"offline_token"`
}

// TokenHandler implements the [Docker Registry v2 authentication] specification.
//
// [Docker Registry v2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/token.md
func (s TokenServer) TokenHandler(w http.ResponseWriter, r *http.Request) {
	var query tokenQuery

	err := decoder.Decode(&query, r.URL.Query())
	if err != nil {
		s.handleError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	scopes, err := ParseScopes(r.URL.Query()["scope"])
	if err != nil {
		s.handleError(w, err)
		return
	}

	tokenRequest := TokenRequest{
		Service:  query.Service,
		ClientID: query.ClientID,
		Offline:  query.OfflineToken,
		Scopes:   scopes,
	}

	username, password, ok := r.BasicAuth()
	tokenRequest.Anonymous = !ok
	tokenRequest.Username = username
	tokenRequest.Password = password

	response, err := s.Service.TokenHandler(r.Context(), tokenRequest)
	if err != nil {
		s.handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

type oauth2Form struct {
	GrantType  string `schema:"grant_type"`
	Service    string `schema:"service"`
	ClientID   string `schema:"client_id"`
	AccessType string `schema:"access_type"`
	Scope      string `schema:"scope"`

	Username     string `schema:"username"`
	Password     string `schema:"password"`
	RefreshToken string `schema:"refresh_token"`
}

// OAuth2Handler implements the [Docker Registry v2 OAuth2 authentication] specification.
//
// [Docker Registry v2 OAuth2 authentication]: https://github.com/distribution/distribution/blob/main/docs/spec/auth/oauth.md
func (s TokenServer) OAuth2Handler(w http.ResponseWriter, r *http.Request) {
	err := r.ParseForm()
	if err != nil {
		s.handleError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	var form oauth2Form

	err = decoder.Decode(&form, r.PostForm)
	if err != nil {
		s.handleError(w, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	scopes, err := ParseScopes([]string{form.Scope})
	if err != nil {
		s.handleError(w, err)
		return
	}

	tokenRequest := OAuth2Request{
		GrantType:    form.GrantType,
		Service:      form.Service,
		ClientID:     form.ClientID,
		AccessType:   form.AccessType,
		Scopes:       scopes,
		Username:     form.Username,
		Password:     form.Password,
		RefreshToken: form.RefreshToken,
	}

	response, err := s.Service.OAuth2Handler(r.Context(), tokenRequest)
	if err != nil {
		s.handleError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
