// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	app "finflow-ledger/internal"
	"finflow-ledger/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:          "ledger",
		Short:        "Multi-tenant wallet ledger API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", os.Getenv("CONFIG_FILE"), "path to the YAML configuration file")

	newApp := func(ctx context.Context) (*app.Application, error) {
		var opts []config.LoaderOption
		if configFile != "" {
			opts = append(opts, config.WithFile(configFile))
		}
		application := app.NewApplication(opts...)
		if err := application.Initialize(ctx); err != nil {
			return nil, err
		}
		return application, nil
	}

	root.AddCommand(serveCmd(newApp), migrateCmd(newApp))
	return root
}

type appFactory func(ctx context.Context) (*app.Application, error)

func serveCmd(newApp appFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Create and initialize the application
			application, err := newApp(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			if err := application.WatchConfig(ctx); err != nil {
				application.Logger.Warn("Configuration hot reload disabled", "error", err)
			}

			// Start HTTP server
			port := application.Config.Server.Port
			server := &http.Server{
				Addr:         ":" + port,
				Handler:      application.HTTPHandler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 35 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			serverErr := make(chan error, 1)
			go func() {
				application.Logger.Info("Starting HTTP server", "port", port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Graceful shutdown
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-serverErr:
				application.Logger.Error("HTTP server failed", "error", err)
				_ = application.Shutdown(context.Background())
				return err
			}

			application.Logger.Info("Shutting down HTTP server...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), application.Config.Server.ShutdownTimeout)
			defer shutdownCancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				application.Logger.Error("HTTP server shutdown failed", "error", err)
				return err
			}

			// Perform application-level shutdown (e.g., close DB connections)
			if err := application.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("application shutdown failed: %w", err)
			}
			return nil
		},
	}
}

func migrateCmd(newApp appFactory) *cobra.Command {
	var (
		tenants []string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema and stored procedures to tenant databases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			application, err := newApp(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer application.Shutdown(ctx) //nolint:errcheck

			targets := tenants
			if all {
				targets = nil
				for id := range application.Config.DB.Connections {
					targets = append(targets, id)
				}
				sort.Strings(targets)
			}
			if len(targets) == 0 {
				targets = []string{""}
			}
			for _, tenant := range targets {
				if err := application.Migrate(ctx, tenant); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tenants, "tenant", nil, "tenant to migrate (repeatable); the default connection when omitted")
	cmd.Flags().BoolVar(&all, "all", false, "migrate every configured connection")
	return cmd
}
