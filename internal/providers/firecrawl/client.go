package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"adstudio/internal/domain"
	"adstudio/internal/infra"
	"adstudio/internal/metrics"
)

const providerName = "firecrawl"

// maxResponseBytes bounds how much of a scrape response is read into memory.
const maxResponseBytes = 16 << 20

// Options configures the Firecrawl client.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs calls against the Firecrawl v2 scrape API. One instance is
// built at startup and shared across requests.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// ScrapeRequest is the body of POST /v2/scrape. Formats holds either plain
// format names ("markdown") or format objects (JSONFormat).
type ScrapeRequest struct {
	URL             string `json:"url"`
	Formats         []any  `json:"formats"`
	OnlyMainContent *bool  `json:"onlyMainContent,omitempty"`
}

// JSONFormat asks Firecrawl for prompt-guided structured extraction.
type JSONFormat struct {
	Type   string `json:"type"`
	Prompt string `json:"prompt,omitempty"`
}

// Document is the data object of a successful scrape.
type Document struct {
	JSON     json.RawMessage `json:"json,omitempty"`
	Markdown string          `json:"markdown,omitempty"`
	HTML     string          `json:"html,omitempty"`
	Links    []string        `json:"links,omitempty"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

// HasJSON reports whether structured extraction produced an object.
func (d *Document) HasJSON() bool {
	if d == nil {
		return false
	}
	raw := bytes.TrimSpace(d.JSON)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// MetadataString returns a metadata value as text. Firecrawl reports some
// meta tags as arrays; the first string entry is used then.
func (d *Document) MetadataString(key string) string {
	if d == nil || d.Metadata == nil {
		return ""
	}
	switch v := d.Metadata[key].(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}

type scrapeResponse struct {
	Success bool      `json:"success"`
	Data    *Document `json:"data"`
	Error   string    `json:"error"`
}

// NewClient constructs a client. An empty API key yields a client that
// reports Available() == false.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.firecrawl.dev"
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Available reports whether the client has credentials.
func (c *Client) Available() bool {
	return c != nil && c.apiKey != ""
}

// Scrape issues a single POST /v2/scrape call. Cancellation is driven by ctx.
func (c *Client) Scrape(ctx context.Context, req ScrapeRequest) (*Document, error) {
	if !c.Available() {
		return nil, fmt.Errorf("%w: firecrawl api key is missing", domain.ErrNotConfigured)
	}
	started := time.Now()
	doc, err := c.scrape(ctx, req)
	metrics.ObserveProvider(providerName, "scrape", started, err)
	if err != nil {
		c.logger.Error().Err(err).Str("url", req.URL).Msg("firecrawl: scrape failed")
		return nil, err
	}
	return doc, nil
}

func (c *Client) scrape(ctx context.Context, req ScrapeRequest) (*Document, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("firecrawl: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("firecrawl: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: firecrawl request: %v", domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: firecrawl request: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: firecrawl read response: %v", domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: firecrawl read response: %v", domain.ErrProviderFailure, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: firecrawl rejected the api key", domain.ErrUnauthorized)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: firecrawl status %d: %s", domain.ErrProviderFailure, resp.StatusCode, snippet(raw))
	}

	var decoded scrapeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: firecrawl decode response: %v", domain.ErrProviderFailure, err)
	}
	if !decoded.Success || decoded.Data == nil {
		msg := strings.TrimSpace(decoded.Error)
		if msg == "" {
			msg = "no data returned"
		}
		return nil, fmt.Errorf("%w: firecrawl: %s", domain.ErrProviderFailure, msg)
	}
	return decoded.Data, nil
}

func snippet(raw []byte) string {
	const limit = 200
	text := strings.TrimSpace(string(raw))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
