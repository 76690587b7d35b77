package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/doctrack/doctrack/internal/httpserver"
	"github.com/doctrack/doctrack/internal/observability"
)

var (
	servePort    string
	serveAddress string
	serveNoRelay bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the doctorate API server",
	Long: `Start the HTTP API together with the outbox relay.

The relay delivers the emails, in-app notifications, history entries and
tasks staged by every change, polling the outbox in the background. An
override template catalog is reloaded whenever its file changes.

The server can be configured via:
  - Command-line flags (--port, --address)
  - Configuration file (server section)
  - Environment variables (DOCTRACK_SERVER_*)

Examples:
  # Start on default port 8080
  doctrack serve

  # Start on a specific address without the relay
  doctrack serve --address localhost:9000 --no-relay`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: 8080)")
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "Address to listen on (e.g., localhost:8080)")
	serveCmd.Flags().BoolVar(&serveNoRelay, "no-relay", false, "Do not deliver outbox messages from this process")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	serverCfg := cfg.Server
	if serveAddress != "" {
		serverCfg.Address = serveAddress
	} else if servePort != "" {
		serverCfg.Address = ":" + servePort
	}

	if serverCfg.APIKey == "" {
		slog.Warn("No API key configured. Identity headers are trusted from any client.",
			"hint", "Set server.api_key or DOCTRACK_SERVER_API_KEY")
	}

	c, err := openContainer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
		Version:     versionInfo.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("failed to flush spans", "error", err)
		}
	}()

	server := httpserver.NewServer(httpserver.ServerDeps{
		Config:  serverCfg,
		Service: c.Service(),
		Version: versionInfo.Version,
		Metrics: c.Metrics(),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})
	if !serveNoRelay {
		g.Go(func() error {
			return c.Relay().Run(ctx)
		})
	}
	if path := cfg.Notification.Catalog; path != "" {
		g.Go(func() error {
			return c.Catalog().WatchOverride(ctx, path, nil)
		})
	}

	if !outputJSON {
		printTitle(cmd.OutOrStdout(), "doctrack API")
		printInfo(cmd.OutOrStdout(), fmt.Sprintf("Listening on %s", serverCfg.Address))
		printSubtle(cmd.OutOrStdout(), "Press Ctrl+C to stop")
	}
	slog.Info("server started", "address", serverCfg.Address, "relay", !serveNoRelay,
		"tracing", cfg.Tracing.Endpoint != "")

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
