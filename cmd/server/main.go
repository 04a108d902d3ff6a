package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/config"
	"github.com/djishijima/hellbuild-v3/internal/container"
	httpapi "github.com/djishijima/hellbuild-v3/internal/interfaces/http"
	"github.com/djishijima/hellbuild-v3/pkg/utils"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config.yaml")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "approvals",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting approval service",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("port", cfg.Server.Port))

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container close failed", zap.Error(err))
		}
	}()

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	}

	services := c.Services()
	deps := httpapi.Dependencies{
		Approvals:  services.Approval,
		References: services.Reference,
		Enrichment: services.Enrichment,
		Export:     services.Export,
		Realtime:   c.Realtime(),
		Limiter:    c.External().Limiter,
		Health: func(ctx context.Context) (bool, interface{}) {
			status := c.Health(ctx)
			return status.Overall, status.Components
		},
	}

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		JWTSecret:      cfg.Auth.JWTSecret,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	}, deps, utils.NewKVLogger(logger))

	if cfg.Auth.JWTSecret == "" {
		logger.Info("JWT secret not set, trusting the " + httpapi.HeaderUserID + " header")
	}

	// Start blocks until ctx is cancelled, then shuts the listener down
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	select {
	case err := <-errCh:
		return err
	case <-time.After(shutdownTimeout):
		return fmt.Errorf("shutdown timed out after %s", shutdownTimeout)
	}
}
