/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the document custody engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file + environment, flag overrides)
  2. Configure structured logging
  3. Initialize SQLite store
  4. Wire the custody registry and stats aggregator
  5. Optionally seed the demo scenario
  6. Start server with graceful shutdown

CONFIGURATION:
  CONFIG_PATH     YAML config file (optional, default ./config.yaml)
  HTTP_PORT       Server port (default 8080)
  DATABASE_PATH   SQLite path, ":memory:" for no persistence
  LOG_LEVEL       zerolog level (default info)
  SEED            Load demo scenario on startup

  Flags -port, -db and -seed override the loaded config.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warp/custody-engine/api"
	"github.com/warp/custody-engine/config"
	"github.com/warp/custody-engine/custody"
	"github.com/warp/custody-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Flag overrides
	port := flag.Int("port", cfg.HTTP.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	seed := flag.Bool("seed", cfg.Seed, "Load the demo scenario on startup")
	flag.Parse()

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *dbPath).Msg("Failed to initialize database")
	}
	defer store.Close()

	// Wire the engine
	clock := custody.SystemClock{}
	ids := custody.UUIDGenerator{}
	users := sqlite.Directory{Store: store}
	registry := custody.NewRegistry(store, store, users, clock, ids, logger)
	stats := &custody.StatsAggregator{Docs: store, Clock: clock}
	seeder := api.NewSeeder(store, store, clock)

	if *seed {
		if err := seeder.Load(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to seed demo scenario")
		}
		logger.Info().Msg("Demo scenario loaded")
	}

	handler := api.NewHandler(registry, stats, users, store, seeder)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Int("port", *port).Msg("Custody engine listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server stopped")
}
