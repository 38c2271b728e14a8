//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"connecthub/support-api/internal/config"
	"connecthub/support-api/internal/domain/llm"
	"connecthub/support-api/internal/domain/support"
	"connecthub/support-api/internal/infrastructure/auth"
	"connecthub/support-api/internal/infrastructure/database"
	"connecthub/support-api/internal/infrastructure/llmprovider"
	"connecthub/support-api/internal/infrastructure/logger"
	"connecthub/support-api/internal/infrastructure/realtime"
	conversationrepo "connecthub/support-api/internal/infrastructure/repository/conversation"
	"connecthub/support-api/internal/interfaces/httpserver"
	"connecthub/support-api/internal/webhook"
)

var supportSet = wire.NewSet(
	conversationrepo.NewRepository,
	wire.Bind(new(support.ConversationRepository), new(*conversationrepo.Repository)),
	conversationrepo.NewMessageRepository,
	wire.Bind(new(support.MessageRepository), new(*conversationrepo.MessageRepository)),
	realtime.NewHub,
	wire.Bind(new(support.Publisher), new(*realtime.Hub)),
	newEscalationNotifier,
	wire.Bind(new(support.EscalationNotifier), new(*webhook.HTTPNotifier)),
	newLLMProvider,
	wire.Bind(new(llm.Provider), new(*llmprovider.Client)),
	support.NewLifecycle,
	newRouter,
)

// BuildApplication demonstrates how to assemble the support service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		newAuthValidator,
		supportSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	}
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newEscalationNotifier(cfg *config.Config, log zerolog.Logger) *webhook.HTTPNotifier {
	return webhook.NewHTTPNotifier(cfg.EscalationURL, log)
}

func newLLMProvider(cfg *config.Config) *llmprovider.Client {
	return llmprovider.NewClient(cfg.LLMAPIURL, cfg.LLMAPIKey, cfg.LLMTimeout)
}

func newRouter(lifecycle *support.Lifecycle, gateway llm.Provider, notifier support.EscalationNotifier, cfg *config.Config, log zerolog.Logger) *support.Router {
	return support.NewRouter(lifecycle, gateway, notifier, support.RouterConfig{
		Model:          cfg.LLMModel,
		HistoryLimit:   cfg.HistoryLimit,
		GatewayTimeout: cfg.LLMTimeout,
	}, log)
}
