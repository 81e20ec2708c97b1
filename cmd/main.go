package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/league-rating-system/config"
	"github.com/Dosada05/league-rating-system/db"
	"github.com/Dosada05/league-rating-system/handlers"
	"github.com/Dosada05/league-rating-system/live"
	"github.com/Dosada05/league-rating-system/repositories"
	api "github.com/Dosada05/league-rating-system/routes"
	"github.com/Dosada05/league-rating-system/services"
	"github.com/Dosada05/league-rating-system/storage"
	"github.com/Dosada05/league-rating-system/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.String("driver", cfg.DBDriver),
		slog.Int("port", cfg.ServerPort))

	dbConn, dialect, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established", slog.String("dialect", string(dialect)))

	st := store.New(dbConn, dialect)

	// Standings export is optional; without R2 credentials the endpoint
	// reports the feature as unavailable.
	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 credentials not set, standings export disabled")
	}

	hub := live.NewHub(logger)
	go hub.Run()

	userRepo := repositories.NewUserRepository(st)
	leagueRepo := repositories.NewLeagueRepository(st)
	rosterRepo := repositories.NewRosterRepository(st)
	matchRepo := repositories.NewMatchRepository(st)
	setScoreRepo := repositories.NewSetScoreRepository(st)
	historyRepo := repositories.NewRatingHistoryRepository(st)
	notificationRepo := repositories.NewNotificationRepository(st)

	notifier := services.NewNotifier(notificationRepo)

	authService := services.NewAuthService(userRepo)
	leagueService := services.NewLeagueService(st, leagueRepo, rosterRepo, userRepo, historyRepo)
	standingsService := services.NewStandingsService(leagueRepo, rosterRepo, matchRepo)
	matchService := services.NewMatchService(
		st, leagueRepo, rosterRepo, matchRepo, setScoreRepo, historyRepo, userRepo,
		notifier, hub, logger,
	)
	consolidationService := services.NewConsolidationService(
		st, leagueRepo, rosterRepo, matchRepo, historyRepo, userRepo,
		notifier, hub, logger,
	)
	exportService := services.NewExportService(standingsService, rosterRepo, uploader)
	notificationService := services.NewNotificationService(notificationRepo)

	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	leagueHandler := handlers.NewLeagueHandler(leagueService, standingsService, consolidationService, exportService)
	matchHandler := handlers.NewMatchHandler(matchService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, leagueService)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		leagueHandler,
		matchHandler,
		notificationHandler,
		webSocketHandler,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
}
