package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hippocampus/config"
	"hippocampus/model"
	"hippocampus/repository"
	"hippocampus/services"
	"hippocampus/usecase"
	"hippocampus/utils"

	"github.com/gin-gonic/gin"
	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	seenUserTTL   = time.Hour
	seenUserSweep = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}

	logger, err := utils.InitLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		zap.NewExample().Fatal("failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		utils.Logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	gin.SetMode(cfg.Server.Mode)
	utils.InitValidator()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := utils.ConnectMongo(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			utils.Logger.Warn("failed to disconnect MongoDB", zap.Error(err))
		}
	}()

	db := mongoClient.Database(cfg.Mongo.DatabaseName)
	if err := repository.SetupIndexes(ctx, db, cfg.Mongo); err != nil {
		return err
	}

	mongoRetrier := utils.NewRetrier("mongodb", cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay, repository.IsTransientMongoError)
	mongoRetrier.Before = utils.PingMongo(mongoClient)
	vectorRetrier := utils.NewRetrier("vector_store", cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay, repository.IsTransientQdrantError)
	geminiRetrier := utils.NewRetrier("gemini", cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay, services.IsTransientGeminiError)

	users := repository.GetUserRepo(mongoClient, cfg.Mongo.DatabaseName, cfg.Mongo.Users, mongoRetrier)
	bookmarks := repository.GetRecordsRepo(mongoClient, cfg.Mongo.DatabaseName, cfg.Mongo.Bookmarks, mongoRetrier)
	notes := repository.GetRecordsRepo(mongoClient, cfg.Mongo.DatabaseName, cfg.Mongo.Notes, mongoRetrier)
	collections := repository.GetCollectionsRepo(mongoClient, cfg.Mongo.DatabaseName, cfg.Mongo.Collections, mongoRetrier)

	vectors, err := openVectorStore(ctx, cfg.Vector, vectorRetrier)
	if err != nil {
		return err
	}
	defer func() { _ = vectors.Close() }()

	embedder, err := services.NewGeminiEmbedder(ctx, cfg.Gemini, geminiRetrier,
		services.WithDimensions(cfg.Vector.Dimensions))
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = services.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			utils.Logger.Warn("Redis unavailable, token revocation disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
		}
	}

	seen := services.NewSeenUserCache(redisClient, seenUserTTL)
	go seen.Run(ctx, seenUserSweep)

	authService := &usecase.AuthService{
		Verifier:  services.NewTokenVerifier(cfg.Auth),
		Refresher: services.NewIdentityClient(cfg.Auth),
		Users:     usecase.NewUserService(users),
		Seen:      seen,
	}
	if redisClient != nil {
		authService.Revoker = services.NewTokenBlacklist(redisClient)
	}

	bookmarkService := usecase.NewRecordService(model.KindBookmark, bookmarks, vectors, embedder, collections)
	noteService := usecase.NewRecordService(model.KindNote, notes, vectors, embedder, collections)
	if cfg.Vector.TopK > 0 {
		bookmarkService.TopK = cfg.Vector.TopK
		noteService.TopK = cfg.Vector.TopK
	}

	health := services.NewHealthMonitor(5 * time.Second)
	health.Register("mongodb", utils.PingMongo(mongoClient))
	health.Register("vector_store", vectors.Health)
	if redisClient != nil {
		health.Register("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	limiter := services.NewRateLimiter()
	go limiter.Run(ctx, cfg.RateLimit.SweepInterval, cfg.RateLimit.Window)

	app := &App{
		Config:      cfg,
		Auth:        authService,
		Bookmarks:   bookmarkService,
		Notes:       noteService,
		Collections: usecase.NewCollectionsService(collections, bookmarks, notes),
		Health:      health,
		Limiter:     limiter,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           setupRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("vector_backend", cfg.Vector.Backend),
			zap.Bool("redis", redisClient != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- goerr.Wrap(err, "server failed", goerr.V("addr", srv.Addr))
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	utils.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return goerr.Wrap(err, "graceful shutdown failed")
	}
	return nil
}

func openVectorStore(ctx context.Context, cfg config.VectorConfig, retrier *utils.Retrier) (repository.VectorStore, error) {
	var store repository.VectorStore
	switch cfg.Backend {
	case "memory":
		utils.Logger.Warn("using in-memory vector store, vectors are lost on restart")
		store = repository.NewMemoryStore(cfg.Dimensions)
	default:
		qs, err := repository.NewQdrantStore(cfg, retrier)
		if err != nil {
			return nil, err
		}
		store = qs
	}

	if err := store.EnsureCollection(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
