package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/funcprovider/auth-service/internal/config"
	"github.com/funcprovider/auth-service/internal/database"
	"github.com/funcprovider/auth-service/internal/handler"
	"github.com/funcprovider/auth-service/internal/middleware"
	"github.com/funcprovider/auth-service/internal/provider"
	"github.com/funcprovider/auth-service/internal/queue"
	"github.com/funcprovider/auth-service/internal/repository"
	"github.com/funcprovider/auth-service/internal/router"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("database: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	profiles := repository.NewProfileRepo(db)
	refresh := repository.NewRefreshTokenRepo(db)
	verification := repository.NewVerificationTokenRepo(db)

	providers := provider.NewRegistry(
		&provider.Google{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
		},
		&provider.Facebook{
			ClientID:     cfg.FacebookClientID,
			ClientSecret: cfg.FacebookClientSecret,
		},
		&provider.Apple{
			ClientID:   cfg.AppleClientID,
			TeamID:     cfg.AppleTeamID,
			KeyID:      cfg.AppleKeyID,
			PrivateKey: cfg.ApplePrivateKey,
		},
	)

	authHandler := handler.NewAuthHandler(cfg, users, profiles, refresh, verification)
	socialHandler := handler.NewSocialHandler(cfg, authHandler, users, profiles, providers)
	profileHandler := handler.NewProfileHandler(users, profiles)

	// Redis is optional: without it the limiter becomes a no-op.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Background email delivery off the broker.
	go func() {
		if err := queue.StartEmailConsumer(queue.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.FromEmail,
		}); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, socialHandler, profileHandler, users, cfg.JWTSecret, limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
