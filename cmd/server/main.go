package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/elefund/elephant-raiser/internal/auth"
	"github.com/elefund/elephant-raiser/internal/checkout"
	"github.com/elefund/elephant-raiser/internal/config"
	"github.com/elefund/elephant-raiser/internal/db"
	"github.com/elefund/elephant-raiser/internal/events"
	"github.com/elefund/elephant-raiser/internal/httpserver"
	"github.com/elefund/elephant-raiser/internal/logging"
	"github.com/elefund/elephant-raiser/internal/mailer"
	loggingmw "github.com/elefund/elephant-raiser/internal/middleware/logging"
	"github.com/elefund/elephant-raiser/internal/payment"
	"github.com/elefund/elephant-raiser/internal/repo"
	"github.com/elefund/elephant-raiser/internal/search"
	"github.com/elefund/elephant-raiser/internal/session"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.RefreshSecret, "REFRESH_SECRET")
	config.MustNonEmptyBytes(cfg.SessionSecret, "SESSION_SECRET")
	config.MustNonEmpty(cfg.StripeSecretKey, "STRIPE_SECRET_KEY")

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	gormDB, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	producer := events.NewProducer(cfg.KafkaBrokers)

	var esClient *elasticsearch.Client
	if cfg.ESURL != "" {
		esClient, err = search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Warn("search disabled", "error", err)
			esClient = nil
		}
	}

	stripeClient := payment.NewClient(cfg.StripeSecretKey, cfg.StripeEndpointSecret)

	store := &repo.GormRepo{DB: gormDB}
	authSvc := &auth.Service{Repo: store, JWTSecret: cfg.JWTSecret, RefreshSecret: cfg.RefreshSecret}
	checkoutSvc := &checkout.Service{Repo: store, Provider: stripeClient, PublicBaseURL: cfg.PublicBaseURL}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Repo:           store,
		Auth:           authSvc,
		Sessions:       &session.Store{Secret: cfg.SessionSecret},
		Checkout:       checkoutSvc,
		Prices:         stripeClient,
		Mailer:         mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.MailAddress, cfg.MailPassword),
		Producer:       producer,
		ES:             esClient,
		SearchIndex:    search.Index,
		PublishableKey: cfg.StripePublishableKey,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "service", cfg.ServiceName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
