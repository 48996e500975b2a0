package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"adstudio/internal/domain"
	"adstudio/internal/infra"
	"adstudio/internal/metrics"
)

const providerName = "gemini"

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client is the single Gemini entry point shared by every request. It is safe
// for concurrent use. A client built without an API key reports
// Available() == false and fails every call with domain.ErrNotConfigured.
type Client struct {
	sdk        *genai.Client
	textModel  string
	imageModel string
	logger     *infra.Logger
}

// TextOptions tunes a text completion.
type TextOptions struct {
	Temperature float32
	JSON        bool
}

// Part is one piece of a multi-part request: either text or inline bytes.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart wraps plain text.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart wraps raw image bytes.
func ImagePart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// NewClient constructs a Gemini client. The HTTP client is used without a
// timeout of its own: image generation relies on the provider's limits.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = "gemini-2.5-flash"
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image-preview"
	}
	c := &Client{textModel: textModel, imageModel: imageModel, logger: logger}

	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return c, nil
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	sdk, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	c.sdk = sdk
	return c, nil
}

// Available reports whether an API key was configured.
func (c *Client) Available() bool {
	return c != nil && c.sdk != nil
}

// TextModel returns the model used for text completions.
func (c *Client) TextModel() string {
	return c.textModel
}

// ImageModel returns the model used for image generation and editing.
func (c *Client) ImageModel() string {
	return c.imageModel
}

// GenerateText runs a single text completion and returns the first non-empty
// text part.
func (c *Client) GenerateText(ctx context.Context, prompt string, opts TextOptions) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("%w: gemini api key is missing", domain.ErrNotConfigured)
	}
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(opts.Temperature)}
	if opts.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	started := time.Now()
	resp, err := c.sdk.Models.GenerateContent(ctx, c.textModel, genai.Text(prompt), cfg)
	if err != nil {
		err = classifyError(err)
		metrics.ObserveProvider(providerName, "generate_text", started, err)
		c.logger.Error().Err(err).Str("model", c.textModel).Msg("gemini: text generation failed")
		return "", err
	}

	text := firstText(resp)
	if text == "" {
		err = fmt.Errorf("%w: model %s returned no text", domain.ErrEmptyResponse, c.textModel)
		metrics.ObserveProvider(providerName, "generate_text", started, err)
		c.logger.Warn().Str("model", c.textModel).Str("finish_reason", finishReason(resp)).Msg("gemini: empty text response")
		return "", err
	}
	metrics.ObserveProvider(providerName, "generate_text", started, nil)
	c.logger.Debug().Str("model", c.textModel).Int("chars", len(text)).Msg("gemini: text generated")
	return text, nil
}

// GenerateImage sends the parts as one user message to the image model and
// returns the first inline image, base64 encoded. No retry is attempted.
func (c *Client) GenerateImage(ctx context.Context, parts []Part) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("%w: gemini api key is missing", domain.ErrNotConfigured)
	}
	sdkParts := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		if len(p.Data) > 0 {
			sdkParts = append(sdkParts, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		if strings.TrimSpace(p.Text) != "" {
			sdkParts = append(sdkParts, genai.NewPartFromText(p.Text))
		}
	}
	if len(sdkParts) == 0 {
		return "", fmt.Errorf("%w: image request has no content", domain.ErrInvalidInput)
	}
	contents := []*genai.Content{genai.NewContentFromParts(sdkParts, genai.RoleUser)}

	started := time.Now()
	resp, err := c.sdk.Models.GenerateContent(ctx, c.imageModel, contents, nil)
	if err != nil {
		err = classifyError(err)
		metrics.ObserveProvider(providerName, "generate_image", started, err)
		c.logger.Error().Err(err).Str("model", c.imageModel).Msg("gemini: image generation failed")
		return "", err
	}

	data := firstInlineImage(resp)
	if len(data) == 0 {
		err = fmt.Errorf("%w: model %s returned no image part", domain.ErrEmptyImageResponse, c.imageModel)
		metrics.ObserveProvider(providerName, "generate_image", started, err)
		c.logger.Warn().Str("model", c.imageModel).Str("finish_reason", finishReason(resp)).Msg("gemini: response without image")
		return "", err
	}
	metrics.ObserveProvider(providerName, "generate_image", started, nil)
	c.logger.Debug().Str("model", c.imageModel).Int("bytes", len(data)).Msg("gemini: image generated")
	return base64.StdEncoding.EncodeToString(data), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

func firstInlineImage(resp *genai.GenerateContentResponse) []byte {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data
			}
		}
	}
	return nil
}

func finishReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	return string(resp.Candidates[0].FinishReason)
}

// classifyError maps SDK failures onto the domain taxonomy. The status code is
// preferred; the message is checked as well because Gemini reports a bad key
// as 400 INVALID_ARGUMENT.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	code := 0
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	}
	msg := strings.ToLower(err.Error())
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden || strings.Contains(msg, "api key"):
		return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	case code == http.StatusTooManyRequests || strings.Contains(msg, "quota") || strings.Contains(msg, "limit"):
		return fmt.Errorf("%w: %v", domain.ErrQuotaExceeded, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
}
