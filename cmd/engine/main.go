package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/adilzhanb/lingoquest/internal/config"
	httpdelivery "github.com/adilzhanb/lingoquest/internal/delivery/http"
	"github.com/adilzhanb/lingoquest/internal/delivery/telegram"
	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres/repository"
	"github.com/adilzhanb/lingoquest/internal/logger"
	"github.com/adilzhanb/lingoquest/internal/service"
)

func main() {
	// Load local .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		zl.Fatal("invalid timezone configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DB.DSN()
	if err != nil {
		zl.Fatal("database is not configured", zap.Error(err))
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		zl.Fatal("failed to apply migrations", zap.Error(err))
	}

	// Initialize repositories and services.
	quizRepo := repository.NewQuizRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool, cfg.Timezone)
	progressionRepo := repository.NewProgressionRepository(pool)
	badgeRepo := repository.NewBadgeRepository(pool)
	transactor := postgres.NewTransactor(pool)

	// Settlement writes run on transaction-bound repositories.
	bind := func(tx postgres.DBTX) (service.AttemptRepository, service.ItemStateRepository, service.ProgressionRepository) {
		return repository.NewAttemptRepository(tx, cfg.Timezone),
			repository.NewItemStateRepository(tx),
			repository.NewProgressionRepository(tx)
	}
	settingsRepo := repository.NewSettingsRepository(pool, entities.EngineSettings{
		XPMultiplier:         cfg.XP.Multiplier,
		StreakFreezeEnabled:  cfg.Features.StreakFreeze,
		BadgeRevocationSweep: cfg.Features.BadgeRevocationSweep,
	})

	badgeService := service.NewBadgeService(badgeRepo, zl)
	settlementService := service.NewSettlementService(
		quizRepo,
		attemptRepo,
		transactor,
		bind,
		settingsRepo,
		badgeService,
		loc,
		zl,
	)

	if cfg.TelegramAPIToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
		if err != nil {
			zl.Fatal("failed to create telegram client", zap.Error(err))
		}
		zl.Info("badge notifier enabled", zap.String("account", bot.Self.UserName))
		settlementService.SetNotifier(telegram.NewBadgeNotifier(bot))
	} else {
		zl.Info("badge notifier disabled: no telegram token configured")
	}

	reconcileService := service.NewReconcileService(
		attemptRepo,
		progressionRepo,
		badgeService,
		settingsRepo,
		cfg.Reconcile.CronSpec,
		loc,
		zl,
	)

	go reconcileService.Start(ctx)

	zl.Info("progression engine started",
		zap.String("env", cfg.Env),
		zap.String("timezone", cfg.Timezone))

	server := httpdelivery.NewServer(cfg.Server.Addr, settlementService, zl)
	if err := server.Run(ctx); err != nil {
		zl.Fatal("http server failed", zap.Error(err))
	}

	zl.Info("shutdown signal received")
}
