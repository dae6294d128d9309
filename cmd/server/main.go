package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"datamarket/docs"
	"datamarket/internal/auth"
	"datamarket/internal/cache"
	"datamarket/internal/config"
	"datamarket/internal/db"
	"datamarket/internal/handler"
	"datamarket/internal/logging"
	"datamarket/internal/mail"
	"datamarket/internal/payment"
	"datamarket/internal/repository"
	"datamarket/internal/router"
	"datamarket/internal/service"
	"datamarket/internal/storage"
)

// @title Data Marketplace API
// @version 1.0
// @description Dataset catalog, purchases, Razorpay payments and gated downloads.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			log.Fatal("reset database", zap.Error(err))
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal("storage init", zap.Error(err))
	}

	mailer := mail.NewMailer(mail.SMTP{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailFrom,
		FromName: cfg.MailFromName,
	}, cfg.FrontendURL)

	var gateway payment.Gateway
	if rp := payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayBaseURL); rp.Configured() {
		gateway = rp
	} else {
		log.Warn("RAZORPAY_KEY_ID or RAZORPAY_KEY_SECRET not set, payment endpoints disabled")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	datasetRepo := repository.NewDatasetRepository(gormDB)
	purchaseRepo := repository.NewPurchaseRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, mailer, cfg.FrontendURL, log)
	datasetService := service.NewDatasetService(datasetRepo, purchaseRepo, store, cacheClient, log)
	purchaseService := service.NewPurchaseService(purchaseRepo, userRepo, datasetRepo)
	paymentService := service.NewPaymentService(gateway, datasetRepo, purchaseService, cfg.PaymentCurrency, log)
	downloadService := service.NewDownloadService(datasetRepo, purchaseService, store, cfg.PublicBaseURL)
	adminService := service.NewAdminService(userRepo, datasetRepo, purchaseRepo, datasetService)

	e := echo.New()
	e.HideBanner = true

	router.Register(e, cfg, log, authService, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Dataset:  handler.NewDatasetHandler(datasetService, downloadService),
		Purchase: handler.NewPurchaseHandler(purchaseService, datasetService),
		Payment:  handler.NewPaymentHandler(paymentService),
		Admin:    handler.NewAdminHandler(adminService),
	})

	swaggerURL := "http://localhost:" + cfg.ServerPort + "/swagger/index.html"
	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
		docs.SwaggerInfo.Host = host
		swaggerURL = "http://" + host + "/swagger/index.html"
		if strings.HasPrefix(cfg.SwaggerHost, "https://") {
			docs.SwaggerInfo.Schemes = []string{"https"}
			swaggerURL = "https://" + host + "/swagger/index.html"
		}
	}
	log.Info("swagger documentation available", zap.String("url", swaggerURL))

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	if err := cacheClient.Close(); err != nil {
		log.Warn("close cache", zap.Error(err))
	}
}
