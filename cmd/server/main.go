package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/docker/libtrust"
	jwtlib "github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/quayside/registry-auth/auth"
	"github.com/quayside/registry-auth/auth/authn"
	"github.com/quayside/registry-auth/auth/authz"
	"github.com/quayside/registry-auth/auth/directory"
	"github.com/quayside/registry-auth/auth/token/jwt"
	"github.com/quayside/registry-auth/config"
)

func init() {
	// the registry expects a single audience as a plain string
	jwtlib.MarshalSingleStringAsArray = false
}

func main() {
	var (
		configFile string
		addr       string
		realm      string
		debug      bool

		requireAccess bool

		issuer string

		cert    string
		certKey string
	)

	flag.StringVar(&configFile, "config", "", "Configuration file")
	flag.StringVar(&addr, "addr", "localhost:8080", "Address to listen on")
	flag.StringVar(&realm, "realm", "", "Authentication realm")
	flag.BoolVar(&debug, "debug", false, "Debug mode")

	flag.BoolVar(&requireAccess, "require-access", false, "Reject requests where no requested scope was granted (403 instead of an empty access array)")

	flag.StringVar(&issuer, "issuer", "registry-token-server", "Issuer string for tokens (dev mode only)")

	flag.StringVar(&cert, "tlscert", "", "Certificate file for TLS")
	flag.StringVar(&certKey, "tlskey", "", "Certificate key file for TLS")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}

	if debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
	}
	defer logger.Sync()

	if realm == "" {
		logger.Sugar().Fatal("Must provide realm")
	}

	var service auth.TokenServiceImpl

	if configFile == "" {
		logger.Sugar().Warn("No configuration file: running in dev mode with a generated key and a single user")

		service, err = devService(issuer, logger)
	} else {
		service, err = configuredService(configFile, logger)
	}
	if err != nil {
		logger.Sugar().Fatalf("Error building service: %v", err)
	}

	service.RequireGrantedAccess = requireAccess

	server := auth.TokenServer{
		Service: service,
		Realm:   realm,
	}

	router := mux.NewRouter()
	router.Path("/token").Methods("GET").HandlerFunc(server.TokenHandler)
	router.Path("/token").Methods("POST").HandlerFunc(server.OAuth2Handler)

	logger.Sugar().Infof("Listening on %s", addr)

	if cert == "" {
		err = http.ListenAndServe(addr, router)
	} else if certKey == "" {
		logger.Sugar().Fatal("Must provide certificate (-tlscert) and key (-tlskey)")
	} else {
		err = http.ListenAndServeTLS(addr, cert, certKey, router)
	}

	if err != nil {
		logger.Sugar().Infof("Error serving: %v", err)
	}
}

func configuredService(configFile string, logger *zap.Logger) (auth.TokenServiceImpl, error) {
	var cfg config.Config

	file, err := os.ReadFile(configFile)
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	err = cfg.Validate()
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	dir, err := cfg.Directory.CreateDirectory()
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	authenticator, err := cfg.Authenticator.Config.CreateAuthenticator(dir)
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	authorizer, err := cfg.Authorizer.Config.CreateAuthorizer(dir)
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	accessTokenIssuer, err := cfg.AccessTokenIssuer.Config.CreateAccessTokenIssuer()
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	refreshTokenIssuer, refreshTokenVerifier, err := cfg.RefreshTokenIssuer.Config.CreateRefreshTokenIssuer()
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	return auth.TokenServiceImpl{
		Authenticator: auth.Authenticator{
			PasswordAuthenticator:     authenticator,
			RefreshTokenAuthenticator: authn.NewRefreshTokenAuthenticator(refreshTokenVerifier, dir),
		},
		Authorizer: authorizer,
		TokenIssuer: auth.TokenIssuer{
			AccessTokenIssuer:  accessTokenIssuer,
			RefreshTokenIssuer: refreshTokenIssuer,
		},
		Logger: logger,
	}, nil
}

// devService wires a service suitable for local development:
// an ephemeral EC P-256 signing key and a single admin user (user/password).
func devService(issuer string, logger *zap.Logger) (auth.TokenServiceImpl, error) {
	signingKey, err := libtrust.GenerateECP256PrivateKey()
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}
	logger.Sugar().Debugf("Using newly generated key with id %s", signingKey.KeyID())

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return auth.TokenServiceImpl{}, err
	}

	dir := directory.NewInMemory(
		[]directory.User{
			{
				ID:           "user",
				Username:     "user",
				PasswordHash: string(passwordHash),
				Enabled:      true,
				Admin:        true,
			},
		},
		nil,
		nil,
	)

	keyProvider := jwt.NewStaticKeyProvider(signingKey)
	refreshTokenIssuer := jwt.NewRefreshTokenIssuer(issuer, keyProvider)

	return auth.TokenServiceImpl{
		Authenticator: auth.Authenticator{
			PasswordAuthenticator:     authn.NewDirectoryAuthenticator(dir),
			RefreshTokenAuthenticator: authn.NewRefreshTokenAuthenticator(refreshTokenIssuer, dir),
		},
		Authorizer: authz.NewNamespaceAuthorizer(dir, "", true),
		TokenIssuer: auth.TokenIssuer{
			AccessTokenIssuer:  jwt.NewAccessTokenIssuer(issuer, keyProvider, 15*time.Minute),
			RefreshTokenIssuer: refreshTokenIssuer,
		},
		Logger: logger,
	}, nil
}
