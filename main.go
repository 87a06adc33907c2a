package main

import (
	"context"
	"log"
	"time"

	"github.com/PePeVeraz-ux/barcoda/config"
	"github.com/PePeVeraz-ux/barcoda/idempotency"
	"github.com/PePeVeraz-ux/barcoda/logging"
	"github.com/PePeVeraz-ux/barcoda/middleware"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/PePeVeraz-ux/barcoda/realtime"
	"github.com/PePeVeraz-ux/barcoda/routes"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting application", zap.String("env", cfg.Env))

	db := initDatabase(cfg, logger)

	if err := models.AutoMigrate(db); err != nil {
		logger.Fatal("AutoMigrate failed", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger))

	// Spreadsheet imports stay well under this.
	r.MaxMultipartMemory = 32 << 20

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	hub := realtime.NewHub(logger, cfg.AllowedOrigins)
	defer hub.Close()

	deps := routes.Dependencies{
		DB:                 db,
		Log:                logger,
		JWTSecret:          cfg.JWTSecret,
		HandoffDestination: cfg.HandoffDestination,
		Hub:                hub,
	}
	if guard := initIdempotency(cfg, logger); guard != nil {
		deps.Guard = guard
	}

	routes.SetupRoutes(r, deps)

	logger.Info("server running", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// initDatabase opens the postgres connection.
func initDatabase(cfg *config.Config, logger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("DB connection failed", zap.Error(err))
	}
	return db
}

// initIdempotency returns nil when REDIS_ADDRESS is unset; checkout then
// runs without Idempotency-Key support.
func initIdempotency(cfg *config.Config, logger *zap.Logger) *idempotency.Guard {
	if cfg.RedisAddress == "" {
		logger.Warn("REDIS_ADDRESS not set, idempotency keys disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", zap.String("addr", cfg.RedisAddress), zap.Error(err))
	}

	return idempotency.NewGuard(client, "barcoda:idempotency", idempotencyTTL)
}
