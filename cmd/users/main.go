package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	pgrepo "github.com/streamhive/user-service/internal/adapters/db/postgres"
	redisCache "github.com/streamhive/user-service/internal/adapters/db/redis"
	s3store "github.com/streamhive/user-service/internal/adapters/storage/s3"
	httptransport "github.com/streamhive/user-service/internal/adapters/transport/http"
	"github.com/streamhive/user-service/internal/adapters/transport/http/middleware"
	"github.com/streamhive/user-service/internal/app/token"
	"github.com/streamhive/user-service/internal/app/upload"
	userapp "github.com/streamhive/user-service/internal/app/user"
	"github.com/streamhive/user-service/internal/app/validation"
	"github.com/streamhive/user-service/internal/infra/config"
	lg "github.com/streamhive/user-service/internal/infra/log"
	"github.com/streamhive/user-service/internal/infra/migrate"
)

const profileCacheTTL = 30 * time.Second

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := s3store.New(rootCtx, cfg)
	if err != nil {
		zapLog.Fatal("failed to init object storage", zap.Error(err))
	}

	var cache userapp.ProfileCache
	if cfg.RedisAddress != "" {
		redisCli := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		cache = redisCache.NewProfileCache(redisCli, profileCacheTTL)
	}

	userRepo := pgrepo.NewUserRepo(db)
	subRepo := pgrepo.NewSubscriptionRepo(db)
	tokenSvc := token.New(userRepo, cfg)
	userSvc := userapp.New(userRepo, subRepo, tokenSvc, cache, validation.New(), cfg)
	uploadSvc := upload.New(store)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(zapLog))
	router.Use(middleware.RateLimitPerIP(50, 100, 10_000, time.Hour))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept",
			"Authorization",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	handler := httptransport.NewHandler(userSvc, uploadSvc, tokenSvc, userRepo, zapLog, cfg)
	handler.Mount(router)

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			zapLog.Info("shutdown signal received")
		case <-ctx.Done():
		}

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
