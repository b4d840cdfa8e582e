package accountservice

import (
	"log/slog"

	httpadapter "atrium/contexts/identity-access/account-service/adapters/http"
	"atrium/contexts/identity-access/account-service/adapters/memory"
	"atrium/contexts/identity-access/account-service/adapters/password"
	"atrium/contexts/identity-access/account-service/adapters/token"
	"atrium/contexts/identity-access/account-service/application"
	"atrium/contexts/identity-access/account-service/ports"

	"golang.org/x/crypto/bcrypt"
)

// Module is the account-service composition root exposed to runtime wiring.
// Tokens is surfaced so the HTTP platform can resolve bearer credentials.
type Module struct {
	Handler httpadapter.Handler
	Tokens  ports.TokenCodec
	Store   *memory.Store
}

// Dependencies captures all runtime ports/config required by NewModule.
type Dependencies struct {
	Repository  ports.Repository
	Hasher      ports.PasswordHasher
	Tokens      ports.TokenCodec
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Hasher: deps.Hasher,
		Tokens: deps.Tokens,
		Clock:  deps.Clock,
		IDs:    deps.IDGenerator,
		Logger: deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Tokens: deps.Tokens,
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters. bcrypt runs at MinCost to keep test suites fast.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repository: store,
		Hasher:     password.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens: token.Codec{
			Secret: []byte("atrium-dev-secret"),
			Issuer: "atrium",
			TTL:    token.DefaultTTL,
		},
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
