package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openbook/hub/internal/account"
	"github.com/openbook/hub/internal/api"
	"github.com/openbook/hub/internal/auth"
	"github.com/openbook/hub/internal/cache"
	"github.com/openbook/hub/internal/category"
	"github.com/openbook/hub/internal/community"
	"github.com/openbook/hub/internal/db"
	"github.com/openbook/hub/internal/events"
	"github.com/openbook/hub/internal/feed"
	"github.com/openbook/hub/pkg/config"
	"github.com/openbook/hub/pkg/logging"
	"github.com/openbook/hub/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Hub API Server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	publisher, err := events.New(&cfg.Events)
	if err != nil {
		logger.Fatal("Failed to configure event stream", zap.Error(err))
	}
	defer publisher.Close()

	repo := db.NewRepository(database.DB)
	router := api.NewRouter(database, redisCache, api.Services{
		Accounts:    account.NewService(repo, redisCache),
		Communities: community.NewService(repo, redisCache, publisher, cfg.Limits),
		Categories:  category.NewService(repo, cfg.Limits),
		Feed:        feed.NewService(repo, redisCache, cfg.Limits),
		Tokens:      auth.NewTokens(&cfg.Auth),
	})

	if cfg.Logging.Level == "DEBUG" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, srv, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		stop()
		os.Exit(1)
	}

	logger.Info("Server exited")
}

// serve runs srv until ctx is cancelled, then shuts it down. It returns the
// listener's error when the server cannot start or fails while running.
func serve(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
