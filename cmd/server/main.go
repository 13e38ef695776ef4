package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"anoa.com/authorhub/internal/bootstrap"
	"anoa.com/authorhub/internal/config"
	"anoa.com/authorhub/internal/server"
	"anoa.com/authorhub/pkg/cache"
	"anoa.com/authorhub/pkg/database"
	"anoa.com/authorhub/pkg/logger"
	"anoa.com/authorhub/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.AppEnv)

	store, err := database.Open(database.Options{
		DSN:             cfg.DSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		Production:      cfg.IsProduction(),
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err := store.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedAdminUser(store.DB(), cfg.Seed, log); err != nil {
			log.Fatal().Err(err).Msg("failed to seed admin user")
		}
	}

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, rate limits and live notifications disabled")
			redisClient = nil
		}
	}

	var avatars storage.AvatarStorage
	if cfg.Cloudinary.CloudName != "" {
		avatars, err = storage.NewCloudinaryStorage(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.UploadFolder)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize cloudinary storage")
		}
	}

	srv, err := server.NewServer(server.Deps{
		Config:      cfg,
		Log:         log,
		Store:       store,
		RedisClient: redisClient,
		Avatars:     avatars,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build server")
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(log, cfg, srv, store, redisClient)
}

func waitForShutdown(log zerolog.Logger, cfg *config.Config, srv *server.Server, store *database.Store, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	if err := store.Close(); err != nil {
		log.Error().Err(err).Msg("database close error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("redis close error")
		}
	}

	log.Info().Msg("server exited cleanly")
}
