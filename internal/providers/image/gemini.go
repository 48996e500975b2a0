package image

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"adstudio/internal/domain"
	"adstudio/internal/imagegen"
	"adstudio/internal/infra"
	"adstudio/internal/providers/gemini"
)

// EditMIMEType is the encoding assumed for images submitted for editing.
const EditMIMEType = domain.MIMETypeJPEG

// Generator renders advertisements with the AI provider's image model.
type Generator struct {
	renderer   Renderer
	normalizer Normalizer
	logger     *infra.Logger
}

// NewGenerator wires a Generator.
func NewGenerator(renderer Renderer, normalizer Normalizer, logger *infra.Logger) *Generator {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Generator{renderer: renderer, normalizer: normalizer, logger: logger}
}

// Available reports whether the AI provider is configured.
func (g *Generator) Available() bool {
	return g != nil && g.renderer != nil && g.renderer.Available()
}

// GenerateAdImage renders prompt. With a product image URL the image is
// normalized and sent along with an instruction to keep the product as is;
// without one the prompt is sent alone.
func (g *Generator) GenerateAdImage(ctx context.Context, prompt domain.AdPrompt, imageURL string) (string, error) {
	if !g.Available() {
		return "", fmt.Errorf("%w: AI provider api key is missing", domain.ErrNotConfigured)
	}
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return g.render(ctx, "ad", []gemini.Part{
			gemini.TextPart(imagegen.BuildInstruction(prompt, imagegen.ModeAd, false)),
		})
	}
	product, err := g.normalizer.Normalize(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("product image: %w", err)
	}
	return g.renderWithProduct(ctx, "ad", prompt, imagegen.ModeAd, product)
}

// GenerateVariationImage renders prompt around an already normalized product
// image. The product must stay visually identical to the reference.
func (g *Generator) GenerateVariationImage(ctx context.Context, prompt domain.AdPrompt, product domain.ProcessedImage) (string, error) {
	if !g.Available() {
		return "", fmt.Errorf("%w: AI provider api key is missing", domain.ErrNotConfigured)
	}
	return g.renderWithProduct(ctx, "variation", prompt, imagegen.ModeVariation, product)
}

// Edit applies a free-text instruction to a base64 encoded JPEG.
func (g *Generator) Edit(ctx context.Context, imageBase64, instruction string) (string, error) {
	if !g.Available() {
		return "", fmt.Errorf("%w: AI provider api key is missing", domain.ErrNotConfigured)
	}
	data, err := decodeBase64(imageBase64)
	if err != nil {
		return "", fmt.Errorf("%w: image is not valid base64", domain.ErrInvalidInput)
	}
	return g.render(ctx, "edit", []gemini.Part{
		gemini.ImagePart(EditMIMEType, data),
		gemini.TextPart(instruction),
	})
}

func (g *Generator) renderWithProduct(ctx context.Context, kind string, prompt domain.AdPrompt, mode imagegen.Mode, product domain.ProcessedImage) (string, error) {
	data, err := base64.StdEncoding.DecodeString(product.Base64)
	if err != nil {
		return "", fmt.Errorf("%w: product image payload: %v", domain.ErrImageConversion, err)
	}
	return g.render(ctx, kind, []gemini.Part{
		gemini.TextPart(imagegen.BuildInstruction(prompt, mode, true)),
		gemini.ImagePart(product.MIMEType, data),
	})
}

func (g *Generator) render(ctx context.Context, kind string, parts []gemini.Part) (string, error) {
	out, err := g.renderer.GenerateImage(ctx, parts)
	if err != nil {
		return "", fmt.Errorf("generate %s image: %w", kind, err)
	}
	g.logger.Info().Str("kind", kind).Int("parts", len(parts)).Msg("image: generated")
	return out, nil
}

// decodeBase64 accepts standard base64 with or without padding, and strips
// a data URL prefix if the client sent one.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if idx := strings.Index(s, ","); idx >= 0 {
			s = s[idx+1:]
		}
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// ValidBase64 reports whether s decodes as an image payload accepted by Edit.
func ValidBase64(s string) bool {
	data, err := decodeBase64(s)
	return err == nil && len(data) > 0
}
