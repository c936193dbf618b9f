package app

import (
	"context"
	"fmt"
	"go-access-gate/config"
	"go-access-gate/db"
	"go-access-gate/handler"
	"go-access-gate/logger"
	"go-access-gate/repository"
	"go-access-gate/router"
	"go-access-gate/service"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// App is the assembled service.
type App struct {
	Config config.Config
	Tokens *service.TokenService
	Router http.Handler
}

// NewStore opens the backend selected by storage.driver. The returned func
// releases its connections.
func NewStore(ctx context.Context, cfg config.Config) (repository.ITokenStore, func() error, error) {
	switch cfg.Storage.Driver {
	case config.DriverRedis:
		client, err := db.ConnectRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisTokenStore(client, cfg.Redis.Key), client.Close, nil

	case config.DriverPostgres:
		database, err := db.Connect(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(database); err != nil {
			database.Close()
			return nil, nil, err
		}
		return repository.NewPostgresTokenStore(database), database.Close, nil

	default:
		fs := afero.NewOsFs()
		if err := fs.MkdirAll(filepath.Dir(cfg.Storage.FilePath), 0o750); err != nil && !os.IsExist(err) {
			return nil, nil, fmt.Errorf("create token directory: %w", err)
		}
		logger.Log.WithField("path", cfg.Storage.FilePath).Info("Using file token store")
		return repository.NewFileTokenStore(fs, cfg.Storage.FilePath), func() error { return nil }, nil
	}
}

// New wires services, handlers and the router on top of store.
func New(cfg config.Config, store repository.ITokenStore, opts ...service.TokenOption) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// --- Wiring All Layers Together ---
	tokenOpts := []service.TokenOption{
		service.WithEviction(cfg.Tokens.EvictExpired),
		service.WithDefaultHours(cfg.Tokens.DefaultHours),
	}
	tokens := service.NewTokenService(store, append(tokenOpts, opts...)...)

	isAdmin := cfg.Issuance.Mode == config.ModeAdmin
	handlers := router.Handlers{
		Links: handler.NewLinkHandler(tokens, cfg.Server.PublicURL, filepath.Join(cfg.Static.Dir, "index.html")),
		Pages: handler.NewPageHandler(cfg.Static.Dir, isAdmin),
	}

	if isAdmin {
		var verifier service.CredentialVerifier
		if cfg.Admin.PasswordHash != "" {
			verifier = service.NewBcryptVerifier(cfg.Admin.PasswordHash)
		} else {
			verifier = service.NewConstantTimeVerifier(cfg.Admin.Password)
		}

		ttl := cfg.Session.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		sessions := handler.NewSessionMiddleware(
			service.NewSessionManager(cfg.Session.Secret, ttl),
			cfg.Session.CookieName,
			cfg.Session.SecureCookie,
		)
		handlers.Sessions = sessions
		handlers.Admin = handler.NewAdminHandler(service.NewAdminAuthService(verifier), sessions)
	}

	return &App{
		Config: cfg,
		Tokens: tokens,
		Router: router.NewRouter(cfg.Issuance.Mode, handlers),
	}, nil
}

// RunSweeper removes expired tokens every interval until ctx is done.
func (a *App) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Tokens.Sweep(ctx); err != nil {
				logger.Log.WithError(err).Error("Token sweep failed")
			}
		}
	}
}
