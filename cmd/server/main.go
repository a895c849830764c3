package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/identity-mirror/idsync/internal/api"
	"github.com/identity-mirror/idsync/internal/core/service"
	"github.com/identity-mirror/idsync/internal/infrastructure/bus"
	mongodb "github.com/identity-mirror/idsync/internal/infrastructure/db/mongo"
	redisdb "github.com/identity-mirror/idsync/internal/infrastructure/db/redis"
	"github.com/identity-mirror/idsync/internal/infrastructure/provider"
	"github.com/identity-mirror/idsync/internal/infrastructure/queue"
	"github.com/identity-mirror/idsync/internal/pkg/config"
	"github.com/identity-mirror/idsync/pkg/logger"
)

// @title        Identity Sync API
// @version      1.0
// @description  Mirrors identity records from the external identity provider and exposes reconciliation operations.
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure user indexes")
	}
	operatorRepo := mongodb.NewOperatorRepository(db)
	if err := operatorRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure operator indexes")
	}

	// --- Bus ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	publisher := bus.NewPublisher(rdb, cfg.Redis.Stream, log)

	// --- Services ---
	syncService := service.NewSyncService(userRepo, service.SyncOptions{
		RejectStale: cfg.Sync.RejectStale,
	}, log)
	userService := service.NewUserService(userRepo, publisher, log)
	providerClient := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.SecretKey)
	reconciler := service.NewReconcileService(providerClient, publisher, cfg.Sync.BulkWorkers, log)
	authService := service.NewAuthService(operatorRepo, cfg.JWTSecret, 24*time.Hour)

	// --- Stream relay: bus deliveries converge on the same sync handlers ---
	dispatcher := queue.NewDispatcher(cfg.Sync.RelayWorkers, syncService, log)
	dispatcher.Start(ctx)

	relay := bus.NewRelay(rdb, cfg.Redis.Stream, dispatcher, log)
	if err := relay.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("relay start failed")
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		DB:          db,
		Redis:       rdb,
		SyncService: syncService,
		UserService: userService,
		Reconciler:  reconciler,
		Bus:         publisher,
		AuthService: authService,
		JWTSecret:   cfg.JWTSecret,
		Log:         log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
