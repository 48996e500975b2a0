package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"adstudio/internal/domain"
	"adstudio/internal/infra"
	"adstudio/internal/providers/firecrawl"
)

const structuredPrompt = `Extract the following product information from this e-commerce page. Be very precise with the data extraction:
- productTitle (the main product name)
- fullProductDescription (complete product description)
- priceWithCurrency (the actual selling price with currency symbol like $69.99)
- keyFeatures (main product features as array, maximum 5)
- mainProductImageUrl (the main product image URL)`

// DefaultTimeout bounds a whole extraction, both scrape calls included.
const DefaultTimeout = 30 * time.Second

// Scraper is the subset of the Firecrawl client the extractor needs.
type Scraper interface {
	Available() bool
	Scrape(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.Document, error)
}

// Options configures an Extractor.
type Options struct {
	Timeout  time.Duration
	Fallback FallbackStrategy
	Logger   *infra.Logger
}

// Extractor turns a product page URL into ProductData.
type Extractor struct {
	scraper  Scraper
	timeout  time.Duration
	fallback FallbackStrategy
	logger   *infra.Logger
}

// New wires an Extractor around scraper.
func New(scraper Scraper, opts Options) *Extractor {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Extractor{scraper: scraper, timeout: timeout, fallback: opts.Fallback, logger: logger}
}

// Available reports whether a scraping credential is configured.
func (e *Extractor) Available() bool {
	return e != nil && e.scraper != nil && e.scraper.Available()
}

// Extract scrapes url. Structured extraction is tried first; when the
// provider returns no structured object the raw page is fetched and the
// fallback rules are applied.
func (e *Extractor) Extract(ctx context.Context, url string) (domain.ProductData, error) {
	if !e.Available() {
		return domain.ProductData{}, fmt.Errorf("%w: scraping is not configured, please use the manual form", domain.ErrNotConfigured)
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	log := e.logger.With().Str("url", url).Logger()
	log.Info().Msg("extract: starting scrape")

	product, source, err := e.extract(ctx, url)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrTimeout) {
			err = fmt.Errorf("%w: %v", domain.ErrTimeout, err)
		}
		if errors.Is(err, domain.ErrTimeout) {
			err = fmt.Errorf("the website took too long to respond, try another URL or use the manual form: %w", err)
		}
		log.Error().Err(err).Msg("extract: scrape failed")
		return domain.ProductData{}, err
	}

	if product.IsEmpty() {
		log.Warn().Str("source", source).Msg("extract: insufficient data")
		return domain.ProductData{}, fmt.Errorf("%w: could not extract title, description or price", domain.ErrInsufficientData)
	}
	product = product.WithDefaults()

	log.Info().
		Str("source", source).
		Str("title", product.Title).
		Str("price", product.Price).
		Int("features", len(product.Features)).
		Bool("has_image", product.ImageURL != "").
		Msg("extract: product extracted")
	return product, nil
}

func (e *Extractor) extract(ctx context.Context, url string) (domain.ProductData, string, error) {
	doc, err := e.scraper.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     url,
		Formats: []any{firecrawl.JSONFormat{Type: "json", Prompt: structuredPrompt}},
	})
	if err != nil {
		return domain.ProductData{}, "", err
	}
	if product, ok := mapStructured(doc.JSON); ok {
		return product, "structured", nil
	}

	e.logger.Debug().Str("url", url).Msg("extract: no structured data, fetching raw content")
	onlyMainContent := false
	raw, err := e.scraper.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:             url,
		Formats:         []any{"markdown", "html", "links"},
		OnlyMainContent: &onlyMainContent,
	})
	if err != nil {
		return domain.ProductData{}, "", fmt.Errorf("fetch page content: %w", err)
	}
	page := &Page{
		Markdown:        raw.Markdown,
		HTML:            raw.HTML,
		MetaTitle:       raw.MetadataString("title"),
		MetaDescription: raw.MetadataString("description"),
		BaseURL:         pageURL(raw, url),
	}
	return e.fallback.Apply(page), "fallback", nil
}

// mapStructured maps the structured extraction object. Fields of the wrong
// type are ignored. ok is false when no object was returned.
func mapStructured(raw json.RawMessage) (domain.ProductData, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return domain.ProductData{}, false
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.ProductData{}, false
	}
	product := domain.ProductData{
		Title:       stringField(fields, "productTitle"),
		Description: stringField(fields, "fullProductDescription"),
		Price:       stringField(fields, "priceWithCurrency"),
		ImageURL:    stringField(fields, "mainProductImageUrl"),
	}
	if items, ok := fields["keyFeatures"].([]any); ok {
		for _, item := range items {
			if s, ok := item.(string); ok {
				product.Features = append(product.Features, cleanText(s))
			}
		}
	}
	product.Features = domain.ClampFeatures(product.Features)
	return product, true
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return cleanText(s)
}

func pageURL(doc *firecrawl.Document, requested string) string {
	for _, key := range []string{"url", "sourceURL"} {
		if v := doc.MetadataString(key); v != "" {
			return v
		}
	}
	return requested
}
