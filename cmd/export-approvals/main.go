package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/query"
	"github.com/djishijima/hellbuild-v3/internal/config"
	"github.com/djishijima/hellbuild-v3/internal/container"
	"github.com/djishijima/hellbuild-v3/pkg/utils"
)

// Writes the approvals matching the filters to an xlsx file in storage.export_dir.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config.yaml")
	search := flag.String("search", "", "Search term")
	status := flag.String("status", "", "Status filter")
	category := flag.String("category", "", "Category filter")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{Level: cfg.Logger.Level, Format: "console", Service: "export"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	path, err := run(cfg, logger, query.Criteria{SearchTerm: *search, Status: *status, Category: *category})
	if err != nil {
		logger.Error("Export failed", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println(path)
}

func run(cfg *config.Config, logger *zap.Logger, criteria query.Criteria) (string, error) {
	ctx := context.Background()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return "", err
	}
	if err := c.Start(ctx); err != nil {
		return "", err
	}
	defer c.Close()

	data, err := c.Services().Export.Export(ctx, criteria)
	if err != nil {
		return "", err
	}

	dir := c.Config().Storage.ExportDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("approvals_%s.xlsx", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}

	logger.Info("Export written", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}
