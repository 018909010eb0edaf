package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/statecraft/internal/cli"
	"github.com/aretw0/statecraft/internal/presentation/tui"
	httpadapter "github.com/aretw0/statecraft/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the workflow engine behind a REST API, with an SSE stream per instance,
the OpenAPI contract on /openapi.yaml and Prometheus metrics on /metrics when enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("seed") {
			cfg.Seed.Dir, _ = cmd.Flags().GetString("seed")
		}
		if trace, _ := cmd.Flags().GetBool("trace"); trace {
			cfg.Tracing.Enabled = true
		}
		if metrics, _ := cmd.Flags().GetBool("metrics"); metrics {
			cfg.Metrics.Enabled = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := cli.NewLogger(cfg.Log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := rt.Close(context.Background()); err != nil {
				logger.Error("failed to release resources", "err", err)
			}
		}()

		opts := []httpadapter.Option{
			httpadapter.WithStreams(rt.Streams),
			httpadapter.WithLogger(logger),
		}
		if rt.Registry != nil {
			opts = append(opts, httpadapter.WithMetrics(rt.Registry))
		}

		srv := &http.Server{
			Addr:              cfg.Addr(),
			Handler:           httpadapter.NewHandler(rt.Engine, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if cli.IsTerminal(os.Stderr) {
			tui.PrintBanner(os.Stderr)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting statecraft server", "addr", srv.Addr, "store", cfg.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("shutdown signal received", "timeout", cfg.Server.ShutdownTimeout)

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("statecraft server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides config)")
	serveCmd.Flags().String("host", "", "Host to bind (overrides config)")
	serveCmd.Flags().String("seed", "", "Directory of definition documents to load at startup")
	serveCmd.Flags().Bool("trace", false, "Export OpenTelemetry spans (see tracing.output)")
	serveCmd.Flags().Bool("metrics", false, "Expose Prometheus metrics on /metrics")
}
