/*
main.go - Server entry point

PURPOSE:
  Boots the ledger engine: loads environment, opens the SQLite store,
  wires the HTTP API, and serves until interrupted.

CONFIGURATION (environment, .env supported):
  LEDGER_DB    Path to the SQLite database file (default ./ledger.db)
  PORT         HTTP listen port (default 8080)
  LOG_LEVEL    zerolog level (default info)
  LOG_FORMAT   "console" or "json" (default console)

SHUTDOWN:
  SIGINT/SIGTERM triggers a graceful shutdown with a 10s drain window,
  then the database is closed.

SEE ALSO:
  - api/server.go: routing
  - store/sqlite/sqlite.go: persistence
*/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tallybook/ledger-engine/api"
	"github.com/tallybook/ledger-engine/logger"
	"github.com/tallybook/ledger-engine/store/sqlite"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:     "ledger-engine",
	Short:   "Offline-first business ledger with invoice numbering and balance reconciliation",
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
}

func init() {
	rootCmd.Flags().String("db", "", "path to the SQLite database (overrides LEDGER_DB)")
	rootCmd.Flags().String("port", "", "HTTP listen port (overrides PORT)")
}

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()
	if err := logger.Setup(logger.FromEnv()); err != nil {
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command) error {
	log := logger.WithComponent("server")

	dbPath := envOr("LEDGER_DB", "./ledger.db")
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		dbPath = v
	}
	port := envOr("PORT", "8080")
	if v, _ := cmd.Flags().GetString("port"); v != "" {
		port = v
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		log.Error().Err(err).Str("db", dbPath).Msg("failed to open database")
		return err
	}
	defer store.Close()
	log.Info().Str("db", dbPath).Msg("database ready")

	handler := api.NewHandler(store, log)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
		return err
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
