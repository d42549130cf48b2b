package main

import (
	"log"
	"net/http"

	_ "github.com/Omakidx/link6ync/docs" // swagger docs

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Omakidx/link6ync/internal/auth"
	"github.com/Omakidx/link6ync/internal/cache"
	"github.com/Omakidx/link6ync/internal/config"
	"github.com/Omakidx/link6ync/internal/db"
	"github.com/Omakidx/link6ync/internal/handler"
	"github.com/Omakidx/link6ync/internal/mailer"
	"github.com/Omakidx/link6ync/internal/model"
	"github.com/Omakidx/link6ync/internal/oauth"
	"github.com/Omakidx/link6ync/internal/repository"
	"github.com/Omakidx/link6ync/internal/router"
	"github.com/Omakidx/link6ync/internal/service"
	"github.com/Omakidx/link6ync/internal/totp"
)

// @title Link6ync API
// @version 1.0
// @description URL shortener and account API with JWT authentication, OAuth sign-in and TOTP two-factor auth.
// @host localhost:5000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(echomw.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Link{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	userRepo := repository.NewUserRepository(gormDB)
	linkRepo := repository.NewLinkRepository(gormDB)

	jwtService := auth.NewJWTService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	totpManager := totp.NewManager(cfg.TwoFactorIssuer)
	smtpMailer := mailer.NewSMTPMailer(cfg)
	oauthLinker := oauth.NewService(cfg, cacheClient)

	authService := service.NewAuthService(userRepo, jwtService, totpManager, smtpMailer, cfg.FrontendURL)
	twoFactorService := service.NewTwoFactorService(userRepo, jwtService, totpManager)
	oauthService := service.NewOAuthService(userRepo, jwtService, oauthLinker)
	userService := service.NewUserService(userRepo)
	linkService := service.NewLinkService(linkRepo)

	isProd := cfg.IsProduction()
	authHandler := handler.NewAuthHandler(authService, isProd)
	twoFactorHandler := handler.NewTwoFactorHandler(twoFactorService, isProd)
	oauthHandler := handler.NewOAuthHandler(oauthService, cfg.FrontendURL, isProd)
	userHandler := handler.NewUserHandler(userService)
	adminHandler := handler.NewAdminHandler(userService)
	linkHandler := handler.NewLinkHandler(linkService)

	router.Register(
		e,
		cfg,
		jwtService,
		cacheClient,
		userRepo,
		authHandler,
		twoFactorHandler,
		oauthHandler,
		userHandler,
		adminHandler,
		linkHandler,
	)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
}
