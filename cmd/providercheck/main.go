package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"adstudio/internal/infra"
	"adstudio/internal/providers/firecrawl"
	"adstudio/internal/providers/gemini"
)

func main() {
	var (
		providerFlag string
		urlFlag      string
		timeoutFlag  time.Duration
	)
	flag.StringVar(&providerFlag, "provider", "all", "Provider to check (gemini, firecrawl or all)")
	flag.StringVar(&urlFlag, "url", "https://example.com", "Page scraped when checking firecrawl")
	flag.DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Timeout for each provider call")
	flag.Parse()

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger := infra.NewLogger("cli").With().Str("cmd", "providercheck").Logger()

	var checks []string
	switch provider := strings.TrimSpace(strings.ToLower(providerFlag)); provider {
	case "gemini", "firecrawl":
		checks = []string{provider}
	case "", "all":
		checks = []string{"gemini", "firecrawl"}
	default:
		fmt.Fprintf(os.Stderr, "unsupported provider %q\n", providerFlag)
		os.Exit(1)
	}

	failed := false
	for _, name := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), timeoutFlag)
		var err error
		switch name {
		case "gemini":
			err = checkGemini(ctx, cfg, &logger)
		case "firecrawl":
			err = checkFirecrawl(ctx, cfg, urlFlag, &logger)
		}
		cancel()
		if err != nil {
			failed = true
			logger.Error().Err(err).Str("provider", name).Msg("provider check failed")
			continue
		}
		logger.Info().Str("provider", name).Msg("provider check passed")
	}
	if failed {
		os.Exit(1)
	}
}

func checkGemini(ctx context.Context, cfg *infra.Config, logger *infra.Logger) error {
	if !cfg.GeminiEnabled() {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:    cfg.GeminiAPIKey,
		BaseURL:   cfg.GeminiBaseURL,
		TextModel: cfg.GeminiTextModel,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	_, err = client.GenerateText(ctx, "Reply with the single word: ok", gemini.TextOptions{})
	return err
}

func checkFirecrawl(ctx context.Context, cfg *infra.Config, url string, logger *infra.Logger) error {
	if !cfg.FirecrawlEnabled() {
		return fmt.Errorf("FIRECRAWL_API_KEY is not set")
	}
	client := firecrawl.NewClient(firecrawl.Options{
		APIKey:  cfg.FirecrawlAPIKey,
		BaseURL: cfg.FirecrawlBaseURL,
		Logger:  logger,
	})
	doc, err := client.Scrape(ctx, firecrawl.ScrapeRequest{URL: url, Formats: []any{"markdown"}})
	if err != nil {
		return err
	}
	logger.Debug().Int("markdown_bytes", len(doc.Markdown)).Str("url", url).Msg("firecrawl: scraped check page")
	return nil
}
