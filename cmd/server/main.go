// Command server runs the logistics command center: the REST API, the
// recurring refresh scheduler, and the notification dispatcher.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glcc/command-center/internal/api"
	"github.com/glcc/command-center/internal/core/carrier"
	"github.com/glcc/command-center/internal/core/service"
	mongodb "github.com/glcc/command-center/internal/infrastructure/db/mongo"
	redisdb "github.com/glcc/command-center/internal/infrastructure/db/redis"
	"github.com/glcc/command-center/internal/infrastructure/notify"
	"github.com/glcc/command-center/internal/infrastructure/queue"
	"github.com/glcc/command-center/internal/infrastructure/scheduler"
	"github.com/glcc/command-center/internal/infrastructure/tracker"
	"github.com/glcc/command-center/internal/pkg/config"
	"github.com/glcc/command-center/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	packageRepo := mongodb.NewPackageRepository(db)
	userRepo := mongodb.NewUserRepository(db)
	if err := packageRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure package indexes")
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure user indexes")
	}

	// --- Backends ---
	detector := carrier.NewDetector()

	dispatch := tracker.NewDispatcher(log)
	domestic := tracker.NewDomesticClient(cfg.Tracker.Endpoint, nil)
	dispatch.Register(domestic, "kr.cj", "kr.hanjin", "kr.epost", "kr.lotte", "kr.kdexp", "kr.cjlogistics")
	scraper := tracker.NewGlobalScraper(nil)
	dispatch.Register(scraper,
		"global.ups", "global.fedex", "global.dhl",
		"global.jppost", "global.sagawa", "global.chinapost")

	// --- Notifications ---
	notifier := notify.NewTelegramNotifier(cfg.Notify.TelegramBotToken, cfg.Notify.TelegramChatID)
	dedup := redisdb.NewDedupChecker(rdb)
	notifyQueue := queue.NewDispatcher(cfg.Notify.Workers, notifier, dedup, log)
	notifyQueue.Start(ctx)

	// --- Core services ---
	refresh := service.NewRefreshOrchestrator(packageRepo, dispatch, notifyQueue, service.RefreshPolicy{
		MaxConcurrent:             cfg.Refresh.MaxConcurrentLookups,
		NotificationsEnabled:      cfg.Notify.Enabled,
		NotifyOnDescriptionChange: cfg.Notify.OnDescriptionChange,
		DeactivateAfterNotFound:   cfg.Refresh.DeactivateAfterNotFound,
	}, log)
	packages := service.NewPackageService(packageRepo, detector, dispatch, log)
	auth := service.NewAuthService(userRepo, cfg.JWTSecret, 24*time.Hour)

	// --- Scheduler ---
	driver := scheduler.NewDriver(refresh, time.Duration(cfg.Refresh.IntervalHours)*time.Hour, log)
	driver.Start()

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Detector:  detector,
		Packages:  packages,
		Refresh:   refresh,
		Driver:    driver,
		Auth:      auth,
		Mongo:     db,
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		Logger:    log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped unexpectedly")
		}
	}()
	log.Info().Str("port", cfg.Port).Msg("command center started")

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	driver.Stop() // waits for any in-flight refresh cycle

	// Drain notices the final cycle may have queued before tearing down.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer drainCancel()
	notifyQueue.Stop(drainCtx)
	cancel()
}
