package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	cloudfirestore "cloud.google.com/go/firestore"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"google.golang.org/api/option"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/korelearn/tutor-management/internal"
	"github.com/korelearn/tutor-management/internal/auth"
	"github.com/korelearn/tutor-management/internal/core/events"
	"github.com/korelearn/tutor-management/internal/docstore"
	fsstore "github.com/korelearn/tutor-management/internal/docstore/firestore"
	"github.com/korelearn/tutor-management/internal/docstore/memory"
	pgstore "github.com/korelearn/tutor-management/internal/docstore/postgres"
	"github.com/korelearn/tutor-management/internal/identity"
	"github.com/korelearn/tutor-management/internal/identity/httpapi"
	"github.com/korelearn/tutor-management/internal/identity/local"
	"github.com/korelearn/tutor-management/internal/notification"
	"github.com/korelearn/tutor-management/internal/notification/smtp"
	"github.com/korelearn/tutor-management/internal/provisioning"
	"github.com/korelearn/tutor-management/internal/transport"
	"github.com/korelearn/tutor-management/internal/transport/rest"
	"github.com/korelearn/tutor-management/internal/webhook"
	"github.com/korelearn/tutor-management/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle webhook deliveries and API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Router *chi.Mux
	Mailer *smtp.Mailer
	Logger *slog.Logger

	firestoreClient *cloudfirestore.Client
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.Mailer.Shutdown()
		if deps.DB != nil {
			if err := deps.DB.Close(); err != nil {
				deps.Logger.Error("database close error", "error", err)
			}
		}
		if deps.firestoreClient != nil {
			if err := deps.firestoreClient.Close(); err != nil {
				deps.Logger.Error("firestore close error", "error", err)
			}
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	lg := logger.L()

	deps := &Dependencies{
		Config: config,
		Logger: lg,
	}

	store, err := initStore(config, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	identities := initIdentityProvider(config, store, lg)

	eventBus := events.NewEventBus(lg)

	provisioningService := provisioning.NewService(store, identities, eventBus, lg)

	mailer := smtp.NewMailer(smtp.Config{
		Host:       config.Mail.Host,
		Port:       config.Mail.Port,
		Username:   config.Mail.Username,
		Password:   config.Mail.Password,
		Sender:     config.Mail.Sender,
		MaxWorkers: config.Mail.MaxWorkers,
		QueueSize:  config.Mail.QueueSize,
	}, lg)
	deps.Mailer = mailer

	dispatcher := notification.NewDispatcher(mailer, config.Server.BaseURL, lg)
	dispatcher.RegisterEventHandlers(eventBus)

	tokens := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(identities, store, tokens, lg)
	authHandler := auth.NewHandler(authService, lg)

	webhookHandler := webhook.NewHandler(
		transport.NewBaseHandler(lg),
		provisioningService,
		config.Paystack.WebhookSecret,
		lg,
	)

	router := chi.NewRouter()
	var sqlDB *sql.DB
	if deps.DB != nil {
		sqlDB = deps.DB.DB
	}
	rest.RegisterAllRoutes(router, sqlDB, webhookHandler, authHandler, config.Server.AllowedOrigins, lg)
	deps.Router = router

	return deps, nil
}

func initIdentityProvider(config *internal.Config, store docstore.Store, lg *slog.Logger) identity.Provider {
	if config.Identity.Backend == "httpapi" {
		return httpapi.NewClient(httpapi.Config{
			BaseURL: config.Identity.BaseURL,
			APIKey:  config.Identity.APIKey,
			Timeout: config.Identity.Timeout,
		}, lg)
	}
	return local.NewProvider(store, config.Security.BCryptCost, lg)
}

// initStore builds the configured docstore backend. The postgres backend also
// keeps a sqlx handle around for health checks.
func initStore(config *internal.Config, deps *Dependencies) (docstore.Store, error) {
	switch config.Storage.Backend {
	case "postgres":
		db, err := initDB(config.Database)
		if err != nil {
			return nil, err
		}
		deps.DB = db

		gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
			TranslateError: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open gorm connection: %w", err)
		}
		return pgstore.NewStore(gormDB), nil

	case "firestore":
		ctx := context.Background()
		var opts []option.ClientOption
		if config.Firestore.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(config.Firestore.CredentialsFile))
		}
		client, err := cloudfirestore.NewClient(ctx, config.Firestore.ProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create firestore client: %w", err)
		}
		deps.firestoreClient = client
		return fsstore.New(client, fsstore.Config{})

	case "memory":
		return memory.New(), nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
