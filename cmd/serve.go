package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/natebrady-cyera/deep-thought/internal/auth"
	"github.com/natebrady-cyera/deep-thought/internal/db/bunx"
	"github.com/natebrady-cyera/deep-thought/internal/llm"
	"github.com/natebrady-cyera/deep-thought/internal/migrations"
	"github.com/natebrady-cyera/deep-thought/internal/ratelimit"
	"github.com/natebrady-cyera/deep-thought/internal/repository"
	"github.com/natebrady-cyera/deep-thought/internal/server"
	"github.com/natebrady-cyera/deep-thought/internal/services/canvas"
	"github.com/natebrady-cyera/deep-thought/internal/services/chat"
	"github.com/natebrady-cyera/deep-thought/internal/services/identity"
	"github.com/natebrady-cyera/deep-thought/internal/services/node"
	"github.com/natebrady-cyera/deep-thought/internal/services/validation"
	"github.com/natebrady-cyera/deep-thought/internal/telemetry"
)

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Deep Thought API server",
	Long:  `Starts the HTTP server exposing the canvas, node, chat and admin endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer bunx.Close(db)

		logger.Info().Str("database", string(bunx.DetectDatabaseType(cfg.DatabaseURL))).Msg("connected to database")

		if autoMigrate {
			group, err := migrations.Apply(cmd.Context(), db)
			if err != nil {
				return err
			}
			if group.ID != 0 {
				logger.Info().Int64("group", group.ID).Msg("applied migrations")
			}
		}

		r, closeFn, err := buildRouter(cmd.Context(), db)
		if err != nil {
			return err
		}
		defer closeFn()

		srv := &http.Server{
			Addr:        cfg.ServerAddr,
			Handler:     r,
			ReadTimeout: 15 * time.Second,
			// completions can take up to the provider timeout
			WriteTimeout: cfg.LLM.Timeout + 15*time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", cfg.ServerAddr).Str("version", cfg.Version).Msg("starting server")
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			logger.Info().Msg("server stopped")
			return nil
		}
	},
}

// buildRouter wires repositories, services and middleware into the HTTP router.
// The returned func releases the rate limiter connection.
func buildRouter(ctx context.Context, db *bun.DB) (http.Handler, func(), error) {
	closeFn := func() {}

	userRepo := repository.NewBunUserRepository(db)
	canvasRepo := repository.NewBunCanvasRepository(db)
	shareRepo := repository.NewBunShareRepository(db)
	nodeRepo := repository.NewBunNodeRepository(db)
	chatRepo := repository.NewBunChatRepository(db)
	messageRepo := repository.NewBunMessageRepository(db)

	policy, err := auth.NewDefaultRolePolicy()
	if err != nil {
		return nil, closeFn, fmt.Errorf("load role policy: %w", err)
	}
	evaluator := auth.NewEvaluator(policy)

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiry,
	})
	if err != nil {
		return nil, closeFn, fmt.Errorf("configure token issuer: %w", err)
	}

	provider, err := llm.NewFromConfig(ctx, cfg.LLM)
	if err != nil {
		return nil, closeFn, err
	}
	logger.Info().Str("provider", provider.Name()).Str("model", cfg.LLM.Model).Msg("completion provider configured")

	serverMetrics, err := telemetry.NewServerMetrics()
	if err != nil {
		return nil, closeFn, fmt.Errorf("create server metrics: %w", err)
	}
	completionMetrics, err := telemetry.NewCompletionMetrics()
	if err != nil {
		return nil, closeFn, fmt.Errorf("create completion metrics: %w", err)
	}
	authMetrics, err := telemetry.NewAuthMetrics()
	if err != nil {
		return nil, closeFn, fmt.Errorf("create auth metrics: %w", err)
	}

	canvasSvc := canvas.NewService(canvasRepo, shareRepo, userRepo, evaluator).WithLogger(logger)
	nodeSvc := node.NewService(nodeRepo, canvasSvc).WithLogger(logger)
	chatSvc := chat.NewService(chatRepo, messageRepo, nodeRepo, canvasSvc, provider).
		WithOptions(chat.Options{
			MaxTokens:        cfg.LLM.MaxTokens,
			Timeout:          cfg.LLM.Timeout,
			MaxContextTokens: cfg.MaxContextTokens,
		}).
		WithMetrics(completionMetrics).
		WithLogger(logger)
	identitySvc := identity.NewService(userRepo, evaluator, cfg.BootstrapAdminEmail).WithLogger(logger)

	validator, err := validation.NewPayloadValidator(32)
	if err != nil {
		return nil, closeFn, fmt.Errorf("create payload validator: %w", err)
	}

	opts := server.RouterOptions{
		Canvases:      canvasSvc,
		Nodes:         nodeSvc,
		Chats:         chatSvc,
		Identity:      identitySvc,
		Tokens:        tokens,
		Users:         userRepo,
		Evaluator:     evaluator,
		Validator:     validator,
		ServerMetrics: serverMetrics,
		AuthMetrics:   authMetrics,
		APIPrefix:     cfg.APIPrefix,
		DevAuth:       cfg.Debug,
		Logger:        logger,
		HealthHandler: server.NewHealthHandler(func(ctx context.Context) error {
			return bunx.Ping(ctx, db)
		}, cfg.AppName, cfg.Version),
	}

	corsOpts := server.DefaultCORSOptions()
	if len(cfg.AllowedOrigins) > 0 {
		corsOpts.AllowedOrigins = cfg.AllowedOrigins
	}
	opts.CORSOptions = &corsOpts

	if cfg.RateLimit.RedisURL != "" {
		limiter, err := ratelimit.NewLimiter(cfg.RateLimit.RedisURL, cfg.RateLimit.PerMinute)
		if err != nil {
			return nil, closeFn, fmt.Errorf("configure rate limiter: %w", err)
		}
		opts.RateLimiter = limiter
		closeFn = func() { _ = limiter.Close() }
		logger.Info().Int("per_minute", cfg.RateLimit.PerMinute).Msg("rate limiting enabled")
	}

	r, err := server.NewRouter(opts)
	if err != nil {
		closeFn()
		return nil, func() {}, err
	}
	return r, closeFn, nil
}

func openDB() (*bun.DB, error) {
	db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{MaxOpenConns: cfg.MaxDBConnections})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "Apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}
