package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/bookclub"
	"github.com/aretw0/bookclub/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the signup book at /, the dashboard at /admin, the JSON API under /api
and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd)
		if err != nil {
			return fmt.Errorf("error initializing bookclub: %w", err)
		}
		defer app.Close()
		logger := app.Logger

		tracing := app.Config.Tracing
		if tracing.ServiceVersion == "" {
			tracing.ServiceVersion = strings.TrimSpace(bookclub.Version)
		}
		shutdownTracing, err := observability.NewTracerProvider(cmd.Context(), tracing)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              app.Config.Addr,
			Handler:           app.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting bookclub server", "addr", srv.Addr,
				"sessions", app.Config.Sessions.Store, "records", app.Config.Records.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			if err := shutdownTracing(ctx); err != nil {
				logger.Warn("Tracer flush failed", "err", err)
			}
			logger.Info("bookclub server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
}
