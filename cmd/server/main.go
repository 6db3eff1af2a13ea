package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/threadmill/threadmill/internal/api"
	"github.com/threadmill/threadmill/internal/cache"
	"github.com/threadmill/threadmill/internal/db"
	"github.com/threadmill/threadmill/internal/engine"
	"github.com/threadmill/threadmill/internal/models"
	"github.com/threadmill/threadmill/pkg/config"
	"github.com/threadmill/threadmill/pkg/logging"
	"github.com/threadmill/threadmill/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Threadmill API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Connect to the database and bring the schema up to date
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := models.AutoMigrate(database.DB); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Redis cache (optional)
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	// Engine services
	repo := db.NewRepository(database.DB)
	dispatcher := engine.NewDispatcher(repo, cfg.Notify.QueueSize, logger.With(zap.String("component", "dispatcher")))
	dispatcher.Start()

	graph := engine.NewGraph(repo, dispatcher, logger.With(zap.String("component", "graph")))
	ledger := engine.NewVoteLedger(repo, dispatcher, logger.With(zap.String("component", "votes")))
	content := engine.NewContentStore(repo, dispatcher, logger.With(zap.String("component", "content")))
	composer := engine.NewComposer(repo, redisCache, cfg.Feed, cfg.Database.MaxRetries, logger.With(zap.String("component", "feed")))
	messenger := engine.NewMessenger(repo, logger.With(zap.String("component", "messages")))

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	apiRouter := api.NewRouter(database, graph, ledger, content, composer, dispatcher, messenger)
	apiRouter.SetupRoutes(router)

	if cfg.Telemetry.Enabled && cfg.Telemetry.PrometheusEnabled {
		router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown: stop accepting requests, then drain the
	// notification queue.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	dispatcher.Stop()

	logger.Info("Server exited")
}
