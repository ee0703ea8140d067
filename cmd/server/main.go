package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/jobsworth/internal/config"
	"github.com/yukikurage/jobsworth/internal/database"
	"github.com/yukikurage/jobsworth/internal/events"
	"github.com/yukikurage/jobsworth/internal/handlers"
	"github.com/yukikurage/jobsworth/internal/jobs"
	"github.com/yukikurage/jobsworth/internal/metrics"
	"github.com/yukikurage/jobsworth/internal/repository"
	"github.com/yukikurage/jobsworth/internal/scoring"
	"github.com/yukikurage/jobsworth/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Run migrations
	if err := database.Migrate(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Events (optional)
	var eventsClient events.Client
	if cfg.NATSURL != "" {
		nc, err := events.NewNATSClient(ctx, cfg.NATSURL, logger)
		if err != nil {
			logger.Warn("failed to connect to nats, running without events", "error", err)
		} else {
			eventsClient = nc
			defer nc.Close()
			logger.Info("connected to nats")
		}
	}

	m := metrics.New()

	repos := services.Repositories{
		Tasks:      repository.NewTaskRepository(db),
		Users:      repository.NewUserRepository(db),
		Companies:  repository.NewCompanyRepository(db),
		Milestones: repository.NewMilestoneRepository(db),
	}
	taskService := services.NewTaskService(repos, services.Options{
		Scorer:  scoring.NewScorer(scoring.NewDefaultPolicy(cfg.Scoring), logger),
		Events:  eventsClient,
		Metrics: m,
		Logger:  logger,
	})
	milestoneService := services.NewMilestoneService(repos.Milestones, taskService)

	// hide_until sweeper
	sweeper := jobs.NewHideUntilSweeper(taskService, cfg.SweepInterval, m, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()
	logger.Info("hide_until sweeper started", "interval", cfg.SweepInterval)

	// Setup session store with Redis, shared with the login service
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		logger.Error("failed to create redis store", "error", err)
		os.Exit(1)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})

	router := handlers.NewRouter(handlers.Deps{
		Tasks:        taskService,
		Milestones:   milestoneService,
		Metrics:      m,
		SessionStore: store,
		Logger:       logger,
	})
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = server.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
