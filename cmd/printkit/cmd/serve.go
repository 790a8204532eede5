package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/printkit/internal/config"
	"github.com/MeKo-Tech/printkit/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP server for the encoding API",
		Long: `Start an HTTP server that exposes printkit over REST and WebSocket.

The server provides the following endpoints:
  GET  /health       - Health check endpoint
  GET  /ean13        - Encode ?code=
  POST /ean13        - Encode {"code": "..."}
  POST /ean13/batch  - Encode {"codes": [...], "format": "json|csv|text|yaml"}
  POST /numbering    - Numbering CSV (or ?format=json)
  POST /tone         - ffmpeg tone command
  GET  /ws           - WebSocket for streaming encodes
  GET  /metrics      - Prometheus metrics

Examples:
  printkit serve
  printkit serve --port 8080
  printkit serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfig, err := resolveServerConfig(cmd, c.conf())
			if err != nil {
				return err
			}
			shutdownTimeout := c.conf().Server.ShutdownTimeout
			if cmd.Flags().Changed("shutdown-timeout") {
				shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
			}
			return runServer(cmd.Context(), serverConfig, shutdownTimeout)
		},
	}

	d := config.DefaultConfig().Server
	cmd.Flags().StringP("host", "H", d.Host, "server host")
	cmd.Flags().IntP("port", "p", d.Port, "server port")
	cmd.Flags().String("cors-origin", d.CORSOrigin, "CORS allowed origins")
	cmd.Flags().Int("timeout", d.TimeoutSec, "request timeout in seconds")
	cmd.Flags().Int("shutdown-timeout", d.ShutdownTimeout, "shutdown timeout in seconds")
	cmd.Flags().Int("max-batch-size", d.MaxBatchSize, "maximum codes per batch request")
	cmd.Flags().Int64("max-body-kb", d.MaxBodyKB, "maximum request body size in KiB")
	// Rate limiting flags
	cmd.Flags().Bool("rate-limit-enabled", d.RateLimitEnabled, "enable rate limiting")
	cmd.Flags().Int("requests-per-minute", d.RequestsPerMinute, "maximum requests per minute per client")
	cmd.Flags().Int("requests-per-hour", d.RequestsPerHour, "maximum requests per hour per client")
	cmd.Flags().Int("max-requests-per-day", d.MaxRequestsPerDay, "maximum requests per day per client")
	cmd.Flags().Int64("max-data-per-day", d.MaxDataPerDay, "maximum request bytes per day per client")

	return cmd
}

// resolveServerConfig applies serve flags on top of the loaded configuration.
func resolveServerConfig(cmd *cobra.Command, cfg *config.Config) (server.Config, error) {
	sc := cfg.Server

	if cmd.Flags().Changed("host") {
		sc.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		sc.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("cors-origin") {
		sc.CORSOrigin, _ = cmd.Flags().GetString("cors-origin")
	}
	if cmd.Flags().Changed("timeout") {
		sc.TimeoutSec, _ = cmd.Flags().GetInt("timeout")
	}
	if cmd.Flags().Changed("max-batch-size") {
		sc.MaxBatchSize, _ = cmd.Flags().GetInt("max-batch-size")
	}
	if cmd.Flags().Changed("max-body-kb") {
		sc.MaxBodyKB, _ = cmd.Flags().GetInt64("max-body-kb")
	}
	if cmd.Flags().Changed("rate-limit-enabled") {
		sc.RateLimitEnabled, _ = cmd.Flags().GetBool("rate-limit-enabled")
	}
	if cmd.Flags().Changed("requests-per-minute") {
		sc.RequestsPerMinute, _ = cmd.Flags().GetInt("requests-per-minute")
	}
	if cmd.Flags().Changed("requests-per-hour") {
		sc.RequestsPerHour, _ = cmd.Flags().GetInt("requests-per-hour")
	}
	if cmd.Flags().Changed("max-requests-per-day") {
		sc.MaxRequestsPerDay, _ = cmd.Flags().GetInt("max-requests-per-day")
	}
	if cmd.Flags().Changed("max-data-per-day") {
		sc.MaxDataPerDay, _ = cmd.Flags().GetInt64("max-data-per-day")
	}

	if sc.Port < 1 || sc.Port > 65535 {
		return server.Config{}, fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", sc.Port)
	}
	if sc.TimeoutSec <= 0 {
		return server.Config{}, fmt.Errorf("invalid timeout: %d (must be positive)", sc.TimeoutSec)
	}

	return server.Config{
		Host:         sc.Host,
		Port:         sc.Port,
		CORSOrigin:   sc.CORSOrigin,
		TimeoutSec:   sc.TimeoutSec,
		MaxBatchSize: sc.MaxBatchSize,
		MaxBodyKB:    sc.MaxBodyKB,
		Batch:        cfg.ToBatchConfig(),
		RateLimit: server.RateLimitConfig{
			Enabled:           sc.RateLimitEnabled,
			RequestsPerMinute: sc.RequestsPerMinute,
			RequestsPerHour:   sc.RequestsPerHour,
			MaxRequestsPerDay: sc.MaxRequestsPerDay,
			MaxDataPerDay:     sc.MaxDataPerDay,
		},
	}, nil
}

// newHTTPServer applies the request timeout to reads and writes.
func newHTTPServer(serverConfig server.Config, handler http.Handler) *http.Server {
	timeout := time.Duration(serverConfig.TimeoutSec) * time.Second
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
}

// runServer serves until a signal arrives or ctx is cancelled, then shuts down gracefully.
func runServer(parent context.Context, serverConfig server.Config, shutdownTimeout int) error {
	srv, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)

	httpServer := newHTTPServer(serverConfig, mux)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, os.Interrupt)
	defer stop()

	go srv.PruneClients(ctx, 10*time.Minute, 24*time.Hour)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting printkit server", "host", serverConfig.Host, "port", serverConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
		return err
	}

	slog.Info("Graceful shutdown completed")
	return nil
}
