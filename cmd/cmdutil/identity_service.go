package cmdutil

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"

	"github.com/natebrady-cyera/deep-thought/internal/auth"
	"github.com/natebrady-cyera/deep-thought/internal/config"
	"github.com/natebrady-cyera/deep-thought/internal/db/bunx"
	"github.com/natebrady-cyera/deep-thought/internal/repository"
	"github.com/natebrady-cyera/deep-thought/internal/services/identity"
)

// IdentityBundle bundles the identity service with its underlying DB connection so callers can
// reuse the connection for other repositories when necessary.
type IdentityBundle struct {
	Service *identity.Service
	Users   repository.UserRepository
	DB      *bun.DB
}

// Close releases the underlying database connection.
func (b *IdentityBundle) Close() {
	if b == nil || b.DB == nil {
		return
	}
	bunx.Close(b.DB)
}

// NewIdentityBundle centralizes identity service construction for CLI commands.
func NewIdentityBundle(cfg *config.Config, logger zerolog.Logger) (*IdentityBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{MaxOpenConns: 2})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	policy, err := auth.NewDefaultRolePolicy()
	if err != nil {
		bunx.Close(db)
		return nil, fmt.Errorf("failed to load role policy: %w", err)
	}

	users := repository.NewBunUserRepository(db)
	svc := identity.NewService(users, auth.NewEvaluator(policy), cfg.BootstrapAdminEmail).WithLogger(logger)

	return &IdentityBundle{Service: svc, Users: users, DB: db}, nil
}
