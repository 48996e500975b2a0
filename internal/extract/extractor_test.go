package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adstudio/internal/domain"
	"adstudio/internal/providers/firecrawl"
)

type fakeScraper struct {
	available bool
	responses []scrapeResult
	requests  []firecrawl.ScrapeRequest
	block     bool
}

type scrapeResult struct {
	doc *firecrawl.Document
	err error
}

func (f *fakeScraper) Available() bool { return f.available }

func (f *fakeScraper) Scrape(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.Document, error) {
	f.requests = append(f.requests, req)
	if f.block {
		<-ctx.Done()
		return nil, fmt.Errorf("firecrawl request: %w", ctx.Err())
	}
	if len(f.responses) == 0 {
		return nil, fmt.Errorf("%w: unexpected call", domain.ErrProviderFailure)
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next.doc, next.err
}

func TestExtractStructuredProduct(t *testing.T) {
	scraper := &fakeScraper{available: true, responses: []scrapeResult{{
		doc: &firecrawl.Document{JSON: json.RawMessage(`{"productTitle":"Acme Mug","priceWithCurrency":"$12.00","mainProductImageUrl":"https://cdn.example/mug.jpg"}`)},
	}}}
	extractor := New(scraper, Options{})

	got, err := extractor.Extract(context.Background(), "https://shop.example/item")
	require.NoError(t, err)
	assert.Equal(t, domain.ProductData{
		Title:       "Acme Mug",
		Description: domain.PlaceholderDescription,
		Price:       "$12.00",
		Features:    []string{},
		ImageURL:    "https://cdn.example/mug.jpg",
	}, got)

	require.Len(t, scraper.requests, 1)
	req := scraper.requests[0]
	assert.Equal(t, "https://shop.example/item", req.URL)
	require.Len(t, req.Formats, 1)
	format, ok := req.Formats[0].(firecrawl.JSONFormat)
	require.True(t, ok)
	assert.Equal(t, "json", format.Type)
	assert.Contains(t, format.Prompt, "priceWithCurrency")
}

func TestExtractStructuredIgnoresWrongTypesAndClampsFeatures(t *testing.T) {
	scraper := &fakeScraper{available: true, responses: []scrapeResult{{
		doc: &firecrawl.Document{JSON: json.RawMessage(`{
			"productTitle": 42,
			"fullProductDescription": "A mug for every morning",
			"priceWithCurrency": "$9.00",
			"keyFeatures": ["a", 3, "b", "c", "d", "e", "f"]
		}`)},
	}}}

	got, err := New(scraper, Options{}).Extract(context.Background(), "https://shop.example/item")
	require.NoError(t, err)
	assert.Equal(t, domain.PlaceholderTitle, got.Title)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got.Features)
	assert.Empty(t, got.ImageURL)
}

func TestExtractFallsBackToRawContent(t *testing.T) {
	scraper := &fakeScraper{available: true, responses: []scrapeResult{
		{doc: &firecrawl.Document{}},
		{doc: &firecrawl.Document{
			Markdown: "# Travel Mug\n- Leak proof\nWas $19.99, now $149.00",
			HTML:     `<img src="/img/travel-mug.png">`,
			Metadata: map[string]any{"description": "Insulated travel mug", "sourceURL": "https://shop.example/travel"},
		}},
	}}

	got, err := New(scraper, Options{}).Extract(context.Background(), "https://shop.example/travel")
	require.NoError(t, err)
	assert.Equal(t, "Travel Mug", got.Title)
	assert.Equal(t, "Insulated travel mug", got.Description)
	assert.Equal(t, "$149.00", got.Price)
	assert.Equal(t, []string{"Leak proof"}, got.Features)
	assert.Equal(t, "https://shop.example/img/travel-mug.png", got.ImageURL)

	require.Len(t, scraper.requests, 2)
	fallback := scraper.requests[1]
	assert.Equal(t, []any{"markdown", "html", "links"}, fallback.Formats)
	require.NotNil(t, fallback.OnlyMainContent)
	assert.False(t, *fallback.OnlyMainContent)
}

func TestExtractInsufficientData(t *testing.T) {
	tests := []struct {
		name      string
		responses []scrapeResult
	}{
		{
			name:      "empty structured object",
			responses: []scrapeResult{{doc: &firecrawl.Document{JSON: json.RawMessage(`{"productTitle":"","keyFeatures":["x"]}`)}}},
		},
		{
			name: "empty raw page",
			responses: []scrapeResult{
				{doc: &firecrawl.Document{JSON: json.RawMessage(`null`)}},
				{doc: &firecrawl.Document{Markdown: "- only a bullet", HTML: "<p>hi</p>"}},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scraper := &fakeScraper{available: true, responses: tc.responses}
			_, err := New(scraper, Options{}).Extract(context.Background(), "https://shop.example/item")
			assert.ErrorIs(t, err, domain.ErrInsufficientData)
		})
	}
}

func TestExtractPropagatesProviderErrors(t *testing.T) {
	scraper := &fakeScraper{available: true, responses: []scrapeResult{
		{err: fmt.Errorf("%w: firecrawl rejected the api key", domain.ErrUnauthorized)},
	}}
	_, err := New(scraper, Options{}).Extract(context.Background(), "https://shop.example/item")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	scraper = &fakeScraper{available: true, responses: []scrapeResult{
		{doc: &firecrawl.Document{}},
		{err: fmt.Errorf("%w: firecrawl status 500", domain.ErrProviderFailure)},
	}}
	_, err = New(scraper, Options{}).Extract(context.Background(), "https://shop.example/item")
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestExtractTimeout(t *testing.T) {
	scraper := &fakeScraper{available: true, block: true}
	_, err := New(scraper, Options{Timeout: 20 * time.Millisecond}).Extract(context.Background(), "https://shop.example/item")
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Contains(t, err.Error(), "took too long")
}

func TestExtractNotConfigured(t *testing.T) {
	scraper := &fakeScraper{}
	extractor := New(scraper, Options{})
	assert.False(t, extractor.Available())
	_, err := extractor.Extract(context.Background(), "https://shop.example/item")
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.Empty(t, scraper.requests)
}
