// Package infrastructure provides core service initialization for application startup.
// It assembles the shared systems (logging, database, blob storage, audit,
// decryption, upload validation, partner authentication) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/courier/internal/config"
	"github.com/JaimeStill/courier/internal/partners"
	"github.com/JaimeStill/courier/pkg/audit"
	"github.com/JaimeStill/courier/pkg/database"
	"github.com/JaimeStill/courier/pkg/decrypt"
	"github.com/JaimeStill/courier/pkg/lifecycle"
	"github.com/JaimeStill/courier/pkg/storage"
	"github.com/JaimeStill/courier/pkg/upload"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Audit     *audit.Log
	Decrypt   *decrypt.Adapter
	Upload    *upload.Gate
	Auth      partners.Authenticator
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
// ctx bounds provider discovery (OIDC, cloud credentials) only.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(ctx, &cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	sink, err := audit.NewSink(&cfg.Audit, logger)
	if err != nil {
		return nil, fmt.Errorf("audit init failed: %w", err)
	}
	auditLog := audit.New(sink, &cfg.Audit, logger)

	caps, err := decrypt.NewCapabilities(&cfg.Decrypt)
	if err != nil {
		return nil, fmt.Errorf("decrypt init failed: %w", err)
	}

	auth, err := partners.New(ctx, &cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Audit:     auditLog,
		Decrypt:   decrypt.New(caps, &cfg.Decrypt, auditLog, logger),
		Upload:    upload.New(&cfg.API.Upload),
		Auth:      auth,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Audit.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("audit start failed: %w", err)
	}
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
