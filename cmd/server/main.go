/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the pension server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment, then apply flags
  2. Open the SQLite store
  3. Attach to the contract, or initialize it with the configured owner
  4. Create API handler and router
  5. Serve until SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -addr    Listen address (default: $PENSION_ADDR or :8080)
  -db      SQLite database path (default: $PENSION_DB or pension.db)
           Use ":memory:" for in-memory database
  -owner   Owner identity, 0x + 64 hex chars (default: $PENSION_OWNER)
           Required only the first time a database is used

ENVIRONMENT:
  PENSION_ADDR, PENSION_DB, PENSION_OWNER, PENSION_LOG_LEVEL,
  PENSION_LOG_FORMAT, PENSION_CORS_ORIGINS, PENSION_METRICS
  See config/config.go.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection

EXAMPLES:
  # First run: initialize the contract
  ./server -db=./data/pension.db -owner=0x8f43...

  # Later runs attach to the stored owner
  ./server -db=./data/pension.db

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment variables
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warp/pension-engine/api"
	"github.com/warp/pension-engine/config"
	"github.com/warp/pension-engine/metrics"
	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/store/sqlite"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags override the environment.
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.StringVar(&cfg.Owner, "owner", cfg.Owner, "owner identity used to initialize a new database")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	var m *metrics.Metrics
	opts := []pension.Option{pension.WithLogger(logger)}
	if cfg.Metrics {
		m = metrics.New()
		opts = append(opts, pension.WithObserver(m))
	}

	contract, err := openContract(ctx, cfg, store, opts)
	if err != nil {
		return err
	}

	handler := api.NewHandler(contract, store, m, logger)
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler, cfg.CORSOrigins...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", cfg.Addr, "db", cfg.DBPath, "owner", contract.Owner().String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// openContract attaches to the stored contract, initializing it with the
// configured owner on first use.
func openContract(ctx context.Context, cfg config.Server, store *sqlite.Store, opts []pension.Option) (*pension.Contract, error) {
	contract, err := pension.Open(ctx, store, opts...)
	if err == nil {
		return contract, nil
	}
	if !errors.Is(err, pension.ErrNotInitialized) {
		return nil, fmt.Errorf("open contract: %w", err)
	}

	owner, err := cfg.OwnerID()
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, errors.New("database is not initialized: set -owner or PENSION_OWNER")
	}
	contract, err = pension.New(ctx, store, *owner, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize contract: %w", err)
	}
	return contract, nil
}
