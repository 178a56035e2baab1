package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/prajxal/fakenews-api/internal/api"
	"github.com/prajxal/fakenews-api/internal/auth"
	"github.com/prajxal/fakenews-api/internal/cache"
	"github.com/prajxal/fakenews-api/internal/config"
	"github.com/prajxal/fakenews-api/internal/service"
	"github.com/prajxal/fakenews-api/internal/store"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load error", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Fatal("db open", zap.Error(err))
	}
	// simple ping + wait (db might be starting in docker)
	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		logger.Warn("waiting for db", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logger.Fatal("could not connect to db", zap.Error(err))
	}

	if err := store.RunMigrations(db); err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed, article cache degraded", zap.Error(err))
	}

	repo := store.NewPgStore(db)
	articleCache := cache.NewArticleCache(rdb, cfg.ArticleCacheTTL, logger)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	svc := service.NewService(repo, repo, repo, articleCache, tokens, logger, cfg.BcryptCost)
	handler := api.NewHandler(svc, logger)

	router := gin.Default()
	api.RegisterRoutes(router, handler, api.AuthRequired(tokens, repo))

	logger.Info("listening", zap.String("port", cfg.HTTPPort))
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
