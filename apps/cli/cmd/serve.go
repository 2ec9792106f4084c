package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/reqline/packages/core/config"
	"github.com/abdul-hamid-achik/reqline/packages/server"
)

var (
	serveHostFlag      string
	servePortFlag      int
	serveRateLimitFlag float64
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the parser and executor over HTTP",
	Long: `Start an HTTP server that accepts statements and returns the result.

  POST /          {"reqline": "HTTP GET | URL https://example.com"}
  GET  /healthz   liveness check

A successful execution answers 201 with the request and response
envelope. Invalid payloads, parse errors and failed requests answer 400
with {"error": true, "message": "..."}.

Logs are written to stdout as JSON.`,
	Example: `  reqline serve
  reqline serve --port 8080 --rate-limit 20
  REQLINE_PORT=8080 reqline serve`,
	Args: usageArgs(cobra.NoArgs),
	RunE: serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveHostFlag, "host", "0.0.0.0", "Interface to listen on (env: REQLINE_HOST)")
	serveCmd.Flags().IntVar(&servePortFlag, "port", 3000, "Port to listen on (env: REQLINE_PORT)")
	serveCmd.Flags().Float64Var(&serveRateLimitFlag, "rate-limit", 0, "Requests per second accepted, 0 disables limiting (env: REQLINE_RATE_LIMIT)")
	addRequestFlags(serveCmd)
	addHistoryFlag(serveCmd)
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var overrides config.Config
	if cmd.Flags().Changed("host") {
		overrides.Server.Host = serveHostFlag
	}
	if cmd.Flags().Changed("port") {
		overrides.Server.Port = servePortFlag
	}
	if cmd.Flags().Changed("rate-limit") {
		overrides.Server.RateLimit = serveRateLimitFlag
	}
	cfg = cfg.Merge(&overrides)
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitConfigError, err)
	}

	level := slog.LevelInfo
	if cfg.GetVerbose() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), &slog.HandlerOptions{Level: level}))

	r, closeHistory, err := newRunner(cfg, logger)
	if err != nil {
		return err
	}
	defer closeHistory()

	srv, err := server.NewServer(r,
		server.WithConfig(cfg.Server),
		server.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("server starting", "addr", srv.Addr(), "version", version, "history", cfg.History != "")
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
