package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mark3labs/remindr/internal/config"
	"github.com/mark3labs/remindr/internal/ruleserver"
)

var serveFlags struct {
	listen  string
	catalog string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference rule service",
	Long: `Run the reference rule service.

It serves channel constraints on /api/constraints, constraint-qualified
templates on /api/templates, Prometheus metrics on /metrics and a health
check on /health. Templates come from the built-in catalog unless
--catalog points at a YAML file.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveFlags.listen, "listen", "l", "", "Listen address (default: from config)")
	serveCmd.Flags().StringVarP(&serveFlags.catalog, "catalog", "c", "", "Catalog YAML file (default: built-in)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	addr := cfg.Listen
	if serveFlags.listen != "" {
		addr = serveFlags.listen
	}

	cat := ruleserver.DefaultCatalog()
	if serveFlags.catalog != "" {
		if cat, err = ruleserver.LoadCatalog(serveFlags.catalog); err != nil {
			return err
		}
	}

	zl, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()

	srv, err := ruleserver.NewServer(cat, zl, addr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errCh
}
