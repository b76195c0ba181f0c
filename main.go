package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/redis/go-redis/v9"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/auth"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/config"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/db"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/handler"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/importer"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/lock"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/notify"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/service"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/utils"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/youtube"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Loaded config", zap.String("timezone", cfg.Timezone))

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("Failed to load timezone", zap.Error(err))
	}

	database, err := db.NewDatabase(ctx, log, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		log.Fatal("Failed to create database connection", zap.Error(err))
	}

	log.Info("Database connection established")

	var redisClient *redis.Client
	locker := lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to parse REDIS_URL", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		locker = lock.NewRedisLocker(redisClient, cfg.LockTTL, log)
		log.Info("Using Redis user locks")
	} else {
		log.Info("REDIS_URL not set, using in-process user locks")
	}

	ytClient, err := youtube.NewClient(ctx, cfg.YouTubeAPIKey, log)
	if err != nil {
		log.Fatal("Failed to create YouTube client", zap.Error(err))
	}
	imp := importer.NewImporter(ytClient, log, cfg.ImportMaxPages, cfg.ImportConcurrency)

	notifier := notify.NewNopNotifier()
	if cfg.NotificationsEnabled() {
		notifier, err = notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, log)
		if err != nil {
			log.Fatal("Failed to create Telegram notifier", zap.Error(err))
		}
		log.Info("Telegram import notifications enabled")
	}

	svc := service.New(service.Options{
		Database:          database,
		Importer:          imp,
		Locker:            locker,
		Notifier:          notifier,
		Log:               log,
		Location:          loc,
		DefaultPlaylistID: cfg.DefaultPlaylistID,
		LockHold:          cfg.LockTTL * 9 / 10, // headroom before the redis key expires
	})

	importLimiter := handler.NewPerMinuteLimiter(cfg.ImportRatePerMinute)
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)

	h := handler.NewHandler(svc, database, sessions, importLimiter, log, cfg.SecureCookies)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Periodic stats logging
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats, err := database.GetStats(ctx)
				if err != nil {
					log.Error("Failed to get stats for periodic log", zap.Error(err))
					continue
				}
				log.Info("periodic_stats",
					zap.Int64("total_users", stats.TotalUsers),
					zap.Int64("total_playlists", stats.TotalPlaylists),
				)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("HTTP server stopped")

	importLimiter.Stop()
	cancel()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis client", zap.Error(err))
		}
	}
	if err := database.Close(shutdownCtx); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
