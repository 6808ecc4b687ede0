// Driftline - Demo API Platform
//
// This is the main entry point for the Driftline server: a REST API with
// JWT authentication, user/post/file management, and real-time WebSocket
// channels, backed by SQLite.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/driftlabs/driftline/migrations"

	"github.com/driftlabs/driftline/internal/api"
	"github.com/driftlabs/driftline/internal/auth"
	"github.com/driftlabs/driftline/internal/files"
	"github.com/driftlabs/driftline/internal/infrastructure/config"
	"github.com/driftlabs/driftline/internal/infrastructure/database"
	"github.com/driftlabs/driftline/internal/infrastructure/logging"
	"github.com/driftlabs/driftline/internal/posts"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Driftline",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Build repositories
	userRepo := auth.NewUserRepository(db.DB)
	tokenRepo := auth.NewTokenRepository(db.DB)
	postRepo := posts.NewRepository(db.DB)
	fileRepo := files.NewRepository(db.DB)

	storage, err := files.NewStorage(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("initialising upload storage: %w", err)
	}
	log.Info("upload storage ready", "dir", cfg.Uploads.Dir)

	// Seed demo accounts on first run so the API is usable out of the box
	seeded, err := auth.SeedDemoUsers(ctx, userRepo, log.Logger)
	if err != nil {
		return fmt.Errorf("seeding demo users: %w", err)
	}
	if seeded > 0 {
		log.Info("demo users seeded", "count", seeded)
	}

	// Build and start the API server
	server, err := api.New(api.Deps{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Users:   userRepo,
		Tokens:  tokenRepo,
		Posts:   postRepo,
		Files:   fileRepo,
		Storage: storage,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()
	log.Info("API server listening",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Verify everything came up healthy
	if err := healthCheck(ctx, db, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server (drains HTTP, stops hub and sweep loops)
	// 2. Database

	log.Info("Driftline stopped")
	return nil
}

// healthCheck verifies the core dependencies after startup.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// getConfigPath returns the configuration file path.
// Uses DRIFTLINE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DRIFTLINE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
