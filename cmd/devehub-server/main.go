// Package main is the entry point for the DeveHub server.
// DeveHub is a developer marketplace selling lifetime licenses to apps.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prn-tf/devehub/internal/app"
	"github.com/prn-tf/devehub/internal/config"
	"github.com/prn-tf/devehub/internal/handler"
	"github.com/prn-tf/devehub/internal/lock"
	"github.com/prn-tf/devehub/internal/metrics"
	"github.com/prn-tf/devehub/internal/pkg/crypto"
	"github.com/prn-tf/devehub/internal/repository"
	"github.com/prn-tf/devehub/internal/repository/memory"
	"github.com/prn-tf/devehub/internal/repository/sqlite"
	"github.com/prn-tf/devehub/internal/seed"
	"github.com/prn-tf/devehub/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := setupLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting DeveHub server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server exited with error")
	}
	logger.Info().Msg("Server stopped")
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = cfg.TimeFormat

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return log.Logger
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger zerolog.Logger) (*repository.Store, error) {
	if !cfg.IsSQLite() {
		logger.Info().Str("driver", "memory").Msg("Using in-memory store")
		return memory.NewStore(), nil
	}
	return sqlite.NewStore(ctx, sqlite.Config{
		BusyTimeout: cfg.BusyTimeout,
		CacheSize:   cfg.CacheSize,
	}, logger)
}

func loadCatalog(path string) (*seed.Catalog, error) {
	if path == "" {
		return seed.DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seed.ParseCatalog(data)
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Store
	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	if store.Health != nil {
		defer store.Health.Close()
	}

	// Seed data
	catalog, err := loadCatalog(cfg.Seed.CatalogPath)
	if err != nil {
		return err
	}
	opts := seed.DefaultOptions(time.Now())
	opts.RandomSeed = cfg.Seed.RandomSeed
	if _, err := seed.Load(ctx, store, catalog, opts, logger); err != nil {
		return err
	}

	// Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	// Services
	codeHash := cfg.Developer.VerificationCodeHash
	if codeHash == "" {
		if codeHash, err = crypto.HashCode(config.DemoVerificationCode); err != nil {
			return err
		}
	}
	payoutCfg := service.DefaultPayoutConfig()
	payoutCfg.LockTTL = cfg.Payout.LockTTL
	payoutCfg.VerificationCodeHash = codeHash

	root := app.New(app.Config{
		LoginDelay:    cfg.Simulation.LoginDelay,
		PurchaseDelay: cfg.Simulation.PurchaseDelay,
		FeedbackDelay: cfg.Simulation.FeedbackDelay,
		TaskRetention: cfg.Simulation.TaskRetention,
		RoleGuard:     cfg.Router.RoleGuard,
		DeveloperName: cfg.Developer.Name,
		AdminEmail:    cfg.Developer.AdminEmail,
	}, app.Deps{
		Store:    store,
		Licenses: service.NewLicenseService(store.Projects, store.Licenses, m, logger),
		Projects: service.NewProjectService(store.Projects, store.Licenses, logger),
		Users:    service.NewUserService(store.Users, m, logger),
		Payouts:  service.NewPayoutService(store.Projects, store.Licenses, lock.NewMemoryLocker(), m, logger, payoutCfg),
		Metrics:  m,
		Logger:   logger,
	})
	defer root.Close()

	// Payout cycle
	scheduler, err := service.NewPayoutScheduler(root, service.SchedulerConfig{
		Enabled:  cfg.Payout.Enabled,
		Schedule: cfg.Payout.Schedule,
		Timeout:  cfg.Payout.Timeout,
	}, logger)
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	var limiter *handler.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = handler.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize, m, logger)
	}
	router := handler.NewRouter(handler.RouterConfig{
		App:         root,
		Metrics:     m,
		MetricsPath: cfg.Metrics.Path,
		Health:      store.Health,
		RateLimiter: limiter,
		MaxBodySize: cfg.Server.MaxBodySize,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
