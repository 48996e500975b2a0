package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"adstudio/internal/adgen"
	"adstudio/internal/extract"
	"adstudio/internal/http/handlers"
	httpapi "adstudio/internal/http/httpapi"
	"adstudio/internal/imagegen"
	"adstudio/internal/infra"
	"adstudio/internal/providers/firecrawl"
	"adstudio/internal/providers/gemini"
	"adstudio/internal/providers/image"
	"adstudio/internal/providers/prompt"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Provider clients are built once and shared by every request.
	ai, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		TextModel:  cfg.GeminiTextModel,
		ImageModel: cfg.GeminiImageModel,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create AI client")
	}
	scraper := firecrawl.NewClient(firecrawl.Options{
		APIKey:  cfg.FirecrawlAPIKey,
		BaseURL: cfg.FirecrawlBaseURL,
		Logger:  &logger,
	})

	extractor := extract.New(scraper, extract.Options{Timeout: cfg.ScrapeTimeout, Logger: &logger})
	normalizer := imagegen.NewNormalizer(imagegen.NormalizerOptions{
		Timeout:  cfg.ImageFetchTimeout,
		MaxBytes: cfg.ImageMaxBytes,
		Logger:   &logger,
	})
	ads := adgen.NewService(
		prompt.NewGenerator(ai, &logger),
		image.NewGenerator(ai, normalizer, &logger),
		normalizer,
		&logger,
	)

	app := handlers.NewApp(extractor, ads, &logger)
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(cfg, app, logger))

	if !cfg.FirecrawlEnabled() {
		logger.Warn().Msg("FIRECRAWL_API_KEY not set, product scraping is disabled")
	}
	if !cfg.GeminiEnabled() {
		logger.Warn().Msg("GEMINI_API_KEY not set, ad generation is disabled")
	}
	logger.Info().
		Str("addr", server.Addr()).
		Bool("scraper", extractor.Available()).
		Bool("ai", ads.Available()).
		Str("text_model", ai.TextModel()).
		Str("image_model", ai.ImageModel()).
		Msg("API listening")

	if err := server.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
