// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	router "finflow-ledger/internal/api"
	"finflow-ledger/internal/api/handler"
	"finflow-ledger/internal/config"
	"finflow-ledger/internal/observability"
	"finflow-ledger/internal/repository"
	"finflow-ledger/internal/repository/postgres"
	"finflow-ledger/internal/schema"
	"finflow-ledger/internal/service"
	"finflow-ledger/internal/util"
	"finflow-ledger/pkg/db"
)

// Application holds all the initialized components of the application.
type Application struct {
	Config  *config.AppConfig
	Live    *config.Live
	Logger  *slog.Logger
	Router  *db.Router
	Metrics *observability.CallMetrics

	// Repositories
	UserRepository        repository.UserRepository
	WalletRepository      repository.WalletRepository
	TransactionRepository repository.TransactionRepository

	// Services
	WalletService service.WalletService
	UserService   service.UserService

	// HTTP API
	HTTPHandler http.Handler

	loaderOptions []config.LoaderOption
}

// NewApplication creates a new Application instance.
func NewApplication(opts ...config.LoaderOption) *Application {
	return &Application{loaderOptions: opts}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Load Configuration
	var err error
	app.Live, err = config.NewLive(config.NewLoader(app.loaderOptions...), nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = app.Live.Config()

	// 2. Initialize Logger; Live logs through it from here on.
	app.Logger = util.InitLogger(util.LogOptions{
		Level:      app.Config.Log.Level,
		JSON:       app.Config.Log.JSON,
		File:       app.Config.Log.File,
		MaxSizeMB:  app.Config.Log.MaxSizeMB,
		MaxBackups: app.Config.Log.MaxBackups,
		MaxAgeDays: app.Config.Log.MaxAgeDays,
	})
	app.Logger.Info("Application configuration loaded successfully.", "default_connection", app.Config.DB.DefaultConnection)

	// 3. Database routing: connections are opened per tenant on first use.
	factory, err := db.NewFactory(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to create connection factory: %w", err)
	}
	app.Router = db.NewRouter(db.NewResolver(app.Live), factory)
	if err := app.Router.Ping(ctx, ""); err != nil {
		app.Logger.Warn("Default database is not reachable yet", "error", err)
	}
	app.Metrics = observability.NewCallMetrics(app.Logger)
	executor := repository.NewProcedureExecutor(app.Router, repository.WithObserver(app.Metrics))

	// 4. Initialize Repositories
	app.UserRepository = postgres.NewUserRepository(executor)
	app.WalletRepository = postgres.NewWalletRepository(executor)
	app.TransactionRepository = postgres.NewTransactionRepository(executor)
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize Services
	newWork := func(tenant string) repository.Work {
		return repository.NewUnitOfWork(app.Router, tenant)
	}
	app.WalletService = service.NewWalletService(
		newWork,
		app.UserRepository,
		app.WalletRepository,
		app.TransactionRepository,
	)
	app.UserService = service.NewUserService(newWork, app.UserRepository)
	app.Logger.Info("Services initialized.")

	// 6. Initialize HTTP Handlers and Router
	walletHandler := handler.NewWalletHandler(app.WalletService, app.Logger)
	userHandler := handler.NewUserHandler(app.UserService, app.WalletService, app.Logger)
	app.HTTPHandler = router.NewRouter(walletHandler, userHandler, app.Metrics.Handler(), app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// WatchConfig reloads tenant connections when the configuration file changes, until ctx is done.
func (app *Application) WatchConfig(ctx context.Context) error {
	return app.Live.Watch(ctx)
}

// Migrate applies the schema to the database of tenant ("" for the default connection).
func (app *Application) Migrate(ctx context.Context, tenant string) error {
	dsn, err := db.NewResolver(app.Live).Resolve(tenant)
	if err != nil {
		return err
	}
	if err := schema.Apply(ctx, app.Router.Driver(), dsn); err != nil {
		return fmt.Errorf("failed to migrate tenant %q: %w", tenant, err)
	}
	app.Logger.Info("Schema is up to date", "tenant", tenant)
	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.Router != nil {
		if err := app.Router.Close(); err != nil {
			app.Logger.Error("Failed to close database connections", "error", err)
			return fmt.Errorf("failed to close database connections: %w", err)
		}
		app.Logger.Info("Database connections closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return util.CloseLogger()
}
