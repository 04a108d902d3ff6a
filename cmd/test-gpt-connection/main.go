package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/document"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/external/openai"
)

const sampleComments = `経理部: 領収書の日付と申請日が一致していません。
申請者: 出張先で紙の領収書を紛失したため、カード明細で代用しました。
部長: カード明細で問題ありません。次回以降は領収書を保管してください。`

func main() {
	// Parse command line flags
	apiKey := flag.String("key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
	model := flag.String("model", "", "Model name (default gpt-4o-mini)")
	promptsPath := flag.String("prompts", "", "Path to prompts.yaml (default built-in prompts)")
	file := flag.String("file", "", "Optional document to run field suggestion on")
	timeout := flag.Duration("timeout", 30*time.Second, "API call timeout")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Initialize logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Get API key from flag or environment
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if *apiKey == "" {
		fmt.Fprintf(os.Stderr, "ERROR: OPENAI_API_KEY not set and no --key flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-gpt-connection --key sk-... [--file receipt.pdf] [--timeout 30s]\n")
		os.Exit(1)
	}

	fmt.Println("=== OpenAI Enrichment Test ===")
	fmt.Printf("  API key length: %d chars\n", len(*apiKey))
	fmt.Printf("  Timeout: %v\n\n", *timeout)

	prompts, err := openai.LoadPrompts(*promptsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading prompts: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Prompts loaded")

	enricher := openai.NewEnricher(openai.Config{
		APIKey:  *apiKey,
		Model:   *model,
		Timeout: *timeout,
	}, prompts, document.NewPDFTextExtractor(0, logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Println("Summarizing sample comments...")
	start := time.Now()
	summary, err := enricher.Summarize(ctx, sampleComments)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ ERROR: summarize failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Check the API key, network connectivity and quota.\n")
		os.Exit(1)
	}
	fmt.Printf("✓ Summary (%v):\n%s\n\n", time.Since(start), summary)

	if *file != "" {
		if err := suggest(ctx, enricher, *file); err != nil {
			fmt.Fprintf(os.Stderr, "❌ ERROR: suggestion failed: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println("✅ Enrichment test PASSED")
}

func suggest(ctx context.Context, enricher port.Enricher, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	fmt.Printf("Suggesting fields for %s (%s)...\n", filepath.Base(path), contentType)
	suggestion, err := enricher.SuggestFields(ctx, port.Document{
		FileName:    filepath.Base(path),
		ContentType: contentType,
		Content:     content,
	})
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(suggestion, "", "  ")
	fmt.Println(string(out))
	return nil
}
