package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aura-growth/config"
	"aura-growth/handlers"
	"aura-growth/middleware"
	"aura-growth/services"
	"aura-growth/utils"
	"aura-growth/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

func main() {
	cfg, foundDotenv, err := config.Load()
	if err != nil {
		log.Fatalf("❌ invalid configuration: %v", err)
	}

	logger, err := utils.NewLogger(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("❌ failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if !foundDotenv {
		logger.Info("⚠️  No .env file found, reading environment variables directly")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	db, err := utils.OpenDatabase(cfg.DatabaseURL, clock)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := utils.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	ai := services.NewChatCompletionClient(cfg.AI, logger.Named("ai"))
	if cfg.AI.APIKey == "" {
		logger.Warn("⚠️  DEEPSEEK_API_KEY not set, mentor replies will use the fallback text")
	}

	progression := services.NewProgressionService(db, clock, logger)
	rewards := services.NewRewardService(db, clock, logger)
	quests := services.NewQuestService(db, clock, logger, ai)
	habits := services.NewHabitService(db, logger)
	actions := services.NewActionService(db, clock, logger)
	chat := services.NewChatService(db, clock, logger, ai, actions)
	effects := services.NewStatusEffectService(db, clock, logger)
	characters := services.NewCharacterService(db, clock, logger, ai, quests)

	if cfg.R2.Enabled() {
		archive, err := utils.NewR2Archive(ctx, cfg.R2)
		if err != nil {
			logger.Fatal("failed to initialize R2 client", zap.Error(err))
		}
		characters.Archive = archive
		logger.Info("✅ R2 archive enabled", zap.String("bucket", cfg.R2.Bucket))
	}

	scheduler, err := workers.NewScheduler(clock, logger.Named("jobs"))
	if err != nil {
		logger.Fatal("failed to create scheduler", zap.Error(err))
	}
	characters.Onboarder = &workers.Onboarding{
		Characters: characters,
		Quests:     quests,
		Jobs:       scheduler,
		Delay:      cfg.OnboardingDelay,
		Log:        logger.Named("onboarding"),
	}
	refresh := &workers.DailyRefresh{
		Characters:   characters,
		Quests:       quests,
		Clock:        clock,
		Log:          logger.Named("refresh"),
		ActiveWindow: time.Duration(cfg.ActiveWindowDays) * 24 * time.Hour,
		Count:        cfg.RefreshQuestCount,
	}
	if err := scheduler.Daily("refresh-daily-quests", cfg.DailyRefreshHour, func(ctx context.Context) {
		refresh.Run(ctx)
	}); err != nil {
		logger.Fatal("failed to schedule daily refresh", zap.Error(err))
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:      "aura-growth",
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed, no exceptions
	app.Use(middleware.GatewayAuth(cfg.GatewayToken, logger))
	app.Use(middleware.RequestLogger(logger.Named("http")))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.Setup(app, handlers.Services{
		Characters:  characters,
		Progression: progression,
		Rewards:     rewards,
		Quests:      quests,
		Habits:      habits,
		Chat:        chat,
		Effects:     effects,
	}, logger)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	logger.Info("✅ Server running", zap.String("addr", cfg.ListenAddr))
	logger.Info("✅ Daily quest refresh scheduled", zap.Uint("hour", cfg.DailyRefreshHour))
	logger.Info("✅ CORS configured", zap.Strings("origins", cfg.AllowedOrigins))

	<-ctx.Done()
	logger.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := scheduler.Shutdown(); err != nil {
		logger.Warn("scheduler shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
