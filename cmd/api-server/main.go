package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/suhashines/teamsync-backend/database"
	"github.com/suhashines/teamsync-backend/internal/config"
	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/handler"
	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/middleware"
	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/repository"
	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg)

	db, err := database.ConnectDB(cfg, logger)
	if err != nil {
		log.Fatalf("could not connect to database: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	resetTokenRepo := repository.NewPasswordResetTokenRepository(db)

	var blacklistRepo repository.BlacklistRepository
	if cfg.BlacklistBackend == "redis" {
		rdb, err := database.ConnectRedis(cfg)
		if err != nil {
			log.Fatalf("could not connect to redis: %v", err)
		}
		blacklistRepo = repository.NewRedisBlacklistRepository(rdb, cfg.AccessTokenTTL)
		logger.Info("using redis blacklist backend")
	} else {
		blacklistRepo = repository.NewBlacklistRepository(db)
		logger.Info("using postgres blacklist backend")
	}

	// Services
	signer := service.NewJWTSigner(cfg)
	hasher := service.NewBcryptHasher()
	generator := service.NewTokenGenerator()
	mailer := service.NewSMTPMailer(cfg, logger)

	refreshTokens := service.NewRefreshTokenService(refreshTokenRepo, userRepo, signer, generator, cfg, logger)
	blacklist := service.NewBlacklistService(blacklistRepo)
	resets := service.NewPasswordResetService(resetTokenRepo, userRepo, refreshTokens, mailer, hasher, generator, cfg, logger)
	sessions := service.NewSessionService(refreshTokens, blacklist, logger)
	authService := service.NewAuthService(userRepo, refreshTokens, signer, blacklist, hasher)

	// Background maintenance sweeps
	cleanup := service.NewCleanupService(refreshTokens, resets, blacklist, cfg.AccessTokenTTL, logger)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go cleanup.Run(ctx, cfg.CleanupInterval)

	// HTTP surface
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	authHandler := handler.NewAuthHandler(authService, refreshTokens, sessions, resets, cfg.AccessTokenTTL)
	maintenanceHandler := handler.NewMaintenanceHandler(cleanup, cfg.AccessTokenTTL)

	authRoutes := r.Group("/auth")
	authRoutes.Use(middleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst))
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh", authHandler.RefreshToken)
		authRoutes.POST("/forgot-password", authHandler.ForgotPassword)
		authRoutes.POST("/reset-password", authHandler.ResetPassword)
		authRoutes.POST("/logout", middleware.AuthMiddleware(authService), authHandler.Logout)
	}

	adminRoutes := r.Group("/admin", middleware.AuthMiddleware(authService), middleware.RequireAdmin())
	{
		adminRoutes.POST("/sweeps/refresh-tokens", maintenanceHandler.SweepRefreshTokens)
		adminRoutes.POST("/sweeps/reset-tokens", maintenanceHandler.SweepResetTokens)
		adminRoutes.POST("/sweeps/blacklist", maintenanceHandler.SweepBlacklist)
	}

	r.GET("/check-conn", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"message": "API is alive and database connected"})
	})

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	logger.Info("server starting", "addr", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
