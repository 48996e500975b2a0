package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
// Provider credentials are optional: a missing key disables the matching
// endpoints instead of failing startup.
type Config struct {
	AppEnv             string
	Port               string
	GeminiAPIKey       string
	GeminiTextModel    string
	GeminiImageModel   string
	GeminiBaseURL      string
	FirecrawlAPIKey    string
	FirecrawlBaseURL   string
	ScrapeTimeout      time.Duration
	ImageFetchTimeout  time.Duration
	ImageMaxBytes      int64
	MaxBodyBytes       int64
	CORSAllowedOrigins []string
	DefaultLocale      string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiTextModel:    getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:   getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image-preview"),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		FirecrawlAPIKey:    strings.TrimSpace(os.Getenv("FIRECRAWL_API_KEY")),
		FirecrawlBaseURL:   getEnv("FIRECRAWL_BASE_URL", "https://api.firecrawl.dev"),
		ScrapeTimeout:      time.Second * time.Duration(getEnvInt("SCRAPE_TIMEOUT_SECONDS", 30)),
		ImageFetchTimeout:  time.Second * time.Duration(getEnvInt("IMAGE_FETCH_TIMEOUT_SECONDS", 60)),
		ImageMaxBytes:      int64(getEnvInt("IMAGE_MAX_BYTES", 20<<20)),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 25<<20)),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.ScrapeTimeout <= 0 {
		return nil, fmt.Errorf("SCRAPE_TIMEOUT_SECONDS must be positive")
	}

	if cfg.ImageMaxBytes <= 0 || cfg.MaxBodyBytes <= 0 {
		return nil, fmt.Errorf("IMAGE_MAX_BYTES and MAX_BODY_BYTES must be positive")
	}

	return cfg, nil
}

// GeminiEnabled reports whether an AI provider credential is configured.
func (c *Config) GeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}

// FirecrawlEnabled reports whether a scraping provider credential is configured.
func (c *Config) FirecrawlEnabled() bool {
	return c.FirecrawlAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
