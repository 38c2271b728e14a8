package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"connecthub/support-api/internal/config"
	"connecthub/support-api/internal/domain/support"
	"connecthub/support-api/internal/infrastructure/auth"
	"connecthub/support-api/internal/infrastructure/database"
	"connecthub/support-api/internal/infrastructure/llmprovider"
	"connecthub/support-api/internal/infrastructure/logger"
	"connecthub/support-api/internal/infrastructure/observability"
	"connecthub/support-api/internal/infrastructure/realtime"
	conversationrepo "connecthub/support-api/internal/infrastructure/repository/conversation"
	"connecthub/support-api/internal/interfaces/httpserver"
	"connecthub/support-api/internal/webhook"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}

	conversationRepository := conversationrepo.NewRepository(db)
	messageRepository := conversationrepo.NewMessageRepository(db)
	hub := realtime.NewHub(log)
	notifier := webhook.NewHTTPNotifier(cfg.EscalationURL, log)
	gateway := llmprovider.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	lifecycle := support.NewLifecycle(conversationRepository, messageRepository, hub, log)
	router := support.NewRouter(lifecycle, gateway, notifier, support.RouterConfig{
		Model:          cfg.LLMModel,
		HistoryLimit:   cfg.HistoryLimit,
		GatewayTimeout: cfg.LLMTimeout,
	}, log)

	httpServer := httpserver.New(cfg, log, router, lifecycle, hub, authValidator, db)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
