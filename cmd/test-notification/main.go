package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/config"
	infraLark "github.com/djishijima/hellbuild-v3/internal/infrastructure/external/lark"
)

// Sends one Lark direct message with the configured app credentials,
// independent of the rest of the service.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config.yaml")
	openID := flag.String("open-id", "", "Recipient open_id (ou_...)")
	text := flag.String("text", "承認システムからのテスト通知です", "Message text")
	timeout := flag.Duration("timeout", 15*time.Second, "API call timeout")
	flag.Parse()

	fmt.Println("=== Lark IM Notification Test ===")

	if !strings.HasPrefix(*openID, "ou_") {
		log.Fatal("Usage: test-notification --open-id ou_... [--text message]")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Lark.AppID == "" || cfg.Lark.AppSecret == "" {
		log.Fatal("lark.app_id and lark.app_secret must be set (LARK_APP_ID, LARK_APP_SECRET)")
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	client := infraLark.NewSDKClient(infraLark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
		BaseURL:   cfg.Lark.BaseURL,
	})
	messenger := infraLark.NewMessenger(client, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Sending to %s...\n", *openID)
	if err := messenger.SendText(ctx, *openID, *text); err != nil {
		log.Fatalf("✗ Failed to send message: %v", err)
	}
	fmt.Println("✓ Message sent")
}
