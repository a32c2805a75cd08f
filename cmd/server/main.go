package main

import (
	"log"
	"net/http"

	_ "clouddisk/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"clouddisk/internal/auth"
	"clouddisk/internal/cache"
	"clouddisk/internal/config"
	"clouddisk/internal/db"
	"clouddisk/internal/handler"
	"clouddisk/internal/mail"
	"clouddisk/internal/model"
	"clouddisk/internal/repository"
	"clouddisk/internal/router"
	"clouddisk/internal/service"
	"clouddisk/internal/storage"
)

// @title Cloud Disk API
// @version 1.0
// @description User account backend with email verification, JWT sessions and file storage.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(&model.User{}); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	blobStore, err := storage.NewLocalStore(cfg.StaticDir)
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)

	// Initialize auth components. The signing secret is read once here
	// and never mutated afterwards.
	hasher := auth.NewPasswordHasher()
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenLifetime)
	codeStore := auth.NewCodeStore(cacheClient)
	revocationList := auth.NewRevocationList(cacheClient)

	mailer := mail.NewSMTPMailer(cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPass, cfg.MailUser)

	// Initialize services
	userService := service.NewUserService(userRepo, hasher, jwtService, codeStore, revocationList, mailer, service.UserServiceConfig{
		AppURL:                   cfg.AppURL,
		RequireEmailVerification: cfg.RequireEmailVerification,
		AccountValidFor:          cfg.AccountValidFor,
	})
	fileService := service.NewFileService(blobStore)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService)
	fileHandler := handler.NewFileHandler(fileService)

	authMiddleware := auth.Middleware(jwtService, revocationList, userRepo)

	// Register routes
	router.Register(e, cfg, userHandler, fileHandler, authMiddleware)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
