package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	// Decoders for formats the AI provider does not accept directly.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"adstudio/internal/domain"
	"adstudio/internal/infra"
	"adstudio/internal/metrics"
)

const (
	// JPEGQuality is used whenever an image has to be re-encoded.
	JPEGQuality = 90

	DefaultMaxBytes     = 20 << 20
	defaultFetchTimeout = 60 * time.Second
)

// NormalizerOptions configures a Normalizer.
type NormalizerOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxBytes   int64
	Logger     *infra.Logger
}

// Normalizer fetches remote product images and makes sure they are encoded
// in a format the AI provider accepts. Results are never cached.
type Normalizer struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *infra.Logger
}

// NewNormalizer builds a Normalizer with the given options.
func NewNormalizer(opts NormalizerOptions) *Normalizer {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Normalizer{httpClient: client, maxBytes: maxBytes, logger: logger}
}

// Normalize downloads imageURL. Supported encodings are returned untouched;
// anything else is re-encoded as JPEG.
func (n *Normalizer) Normalize(ctx context.Context, imageURL string) (domain.ProcessedImage, error) {
	started := time.Now()
	data, contentType, err := n.fetch(ctx, imageURL)
	metrics.ObserveProvider("image_host", "fetch", started, err)
	if err != nil {
		n.logger.Error().Err(err).Str("url", imageURL).Msg("imagegen: image fetch failed")
		return domain.ProcessedImage{}, err
	}
	processed, err := Process(data, contentType)
	if err != nil {
		n.logger.Error().Err(err).Str("url", imageURL).Str("content_type", contentType).Msg("imagegen: image conversion failed")
		return domain.ProcessedImage{}, err
	}
	if processed.MIMEType != contentType {
		n.logger.Info().
			Str("url", imageURL).
			Str("from", contentType).
			Str("to", processed.MIMEType).
			Msg("imagegen: image converted")
	}
	return processed, nil
}

func (n *Normalizer) fetch(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(imageURL), nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid image url: %v", domain.ErrImageFetch, err)
	}
	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to fetch image: %v", domain.ErrImageFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: failed to fetch image: status %d", domain.ErrImageFetch, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, n.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to read image: %v", domain.ErrImageFetch, err)
	}
	if int64(len(data)) > n.maxBytes {
		return nil, "", fmt.Errorf("%w: image exceeds %d bytes", domain.ErrImageFetch, n.maxBytes)
	}
	return data, mediaType(resp.Header.Get("Content-Type")), nil
}

// mediaType strips parameters from a Content-Type header. A missing header
// is treated as JPEG and image/jpg is folded into image/jpeg.
func mediaType(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return domain.MIMETypeJPEG
	}
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(strings.SplitN(header, ";", 2)[0]))
	}
	if mt == "image/jpg" {
		return domain.MIMETypeJPEG
	}
	return mt
}

// Process encodes data for the AI provider. Data whose declared type is
// already supported is passed through byte for byte.
func Process(data []byte, contentType string) (domain.ProcessedImage, error) {
	contentType = mediaType(contentType)
	if domain.SupportedImageMIMEType(contentType) {
		return domain.ProcessedImage{
			Base64:   base64.StdEncoding.EncodeToString(data),
			MIMEType: contentType,
		}, nil
	}
	converted, err := toJPEG(data)
	if err != nil {
		return domain.ProcessedImage{}, fmt.Errorf("%w: failed to convert image from %s to JPEG: %v", domain.ErrImageConversion, contentType, err)
	}
	return domain.ProcessedImage{
		Base64:   base64.StdEncoding.EncodeToString(converted),
		MIMEType: domain.MIMETypeJPEG,
	}, nil
}

// toJPEG decodes any registered format and re-encodes it as JPEG. JPEG has
// no alpha channel, so transparent pixels are composited onto white.
func toJPEG(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
