package main

import (
	"context"
	"log"
	"time"
	_ "time/tzdata"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mood-map/api-go/archive"
	"github.com/mood-map/api-go/config"
	"github.com/mood-map/api-go/controllers"
	"github.com/mood-map/api-go/middleware"
	"github.com/mood-map/api-go/routes"
	"github.com/mood-map/api-go/services"
	"github.com/mood-map/api-go/utils"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	db, err := config.InitDB(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	engine := services.NewEngine(db, services.EngineConfigFrom(cfg), archive.New(cfg.Archive, logger), logger)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := controllers.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register validators", zap.Error(err))
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), middleware.RecoveryMiddleware(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	r.Use(cors.New(corsConfig))

	// Initialize routes
	routes.SetupRoutes(r, db, engine, cfg.JWTSecret)

	logger.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.String("timezone", cfg.Location.String()),
		zap.Int("daily_limit", cfg.Moderation.DailyLimit),
		zap.Bool("archive_enabled", cfg.Archive.Enabled()))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
