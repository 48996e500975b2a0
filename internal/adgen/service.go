package adgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"adstudio/internal/domain"
	"adstudio/internal/infra"
)

// PromptGenerator produces AdPrompt documents.
type PromptGenerator interface {
	Available() bool
	GenerateAdPrompt(ctx context.Context, product domain.ProductData, locale string) (domain.AdPrompt, error)
	GenerateVariationPrompt(ctx context.Context, original json.RawMessage, product domain.ProductData, locale string) (domain.AdPrompt, error)
}

// ImageGenerator renders and edits advertisement images.
type ImageGenerator interface {
	Available() bool
	GenerateAdImage(ctx context.Context, prompt domain.AdPrompt, imageURL string) (string, error)
	GenerateVariationImage(ctx context.Context, prompt domain.AdPrompt, product domain.ProcessedImage) (string, error)
	Edit(ctx context.Context, imageBase64, instruction string) (string, error)
}

// Normalizer fetches and encodes product images.
type Normalizer interface {
	Normalize(ctx context.Context, imageURL string) (domain.ProcessedImage, error)
}

// Result is a rendered advertisement and the brief it was rendered from.
type Result struct {
	ImageBase64 string          `json:"imageBase64"`
	Prompt      domain.AdPrompt `json:"prompt"`
}

// Service composes prompt and image generation into the ad workflows.
type Service struct {
	prompts    PromptGenerator
	images     ImageGenerator
	normalizer Normalizer
	logger     *infra.Logger
}

// NewService wires a Service.
func NewService(prompts PromptGenerator, images ImageGenerator, normalizer Normalizer, logger *infra.Logger) *Service {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Service{prompts: prompts, images: images, normalizer: normalizer, logger: logger}
}

// Available reports whether the AI provider is configured.
func (s *Service) Available() bool {
	return s != nil && s.prompts.Available() && s.images.Available()
}

// GenerateAd creates a brief for product and renders it.
func (s *Service) GenerateAd(ctx context.Context, product domain.ProductData, locale string) (Result, error) {
	log := s.logger.With().Str("op", "generate_ad").Str("title", product.Title).Logger()

	prompt, err := s.prompts.GenerateAdPrompt(ctx, product, locale)
	if err != nil {
		log.Error().Err(err).Msg("adgen: prompt generation failed")
		return Result{}, err
	}
	image, err := s.images.GenerateAdImage(ctx, prompt, product.ImageURL)
	if err != nil {
		log.Error().Err(err).Str("image_url", product.ImageURL).Msg("adgen: image generation failed")
		return Result{}, err
	}
	log.Info().Bool("with_product_image", product.ImageURL != "").Msg("adgen: ad generated")
	return Result{ImageBase64: image, Prompt: prompt}, nil
}

// CreateVariation renders a divergent ad for the same product. The product
// image is mandatory. The variation brief and the product image fetch run
// concurrently; the first failure cancels the other.
func (s *Service) CreateVariation(ctx context.Context, original json.RawMessage, product domain.ProductData, locale string) (Result, error) {
	log := s.logger.With().Str("op", "create_variation").Str("title", product.Title).Logger()

	if strings.TrimSpace(product.ImageURL) == "" {
		err := fmt.Errorf("%w: a variation needs the original product image", domain.ErrMissingProductImage)
		log.Warn().Err(err).Msg("adgen: variation rejected")
		return Result{}, err
	}

	var (
		prompt       domain.AdPrompt
		productImage domain.ProcessedImage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prompt, err = s.prompts.GenerateVariationPrompt(gctx, original, product, locale)
		return err
	})
	g.Go(func() error {
		var err error
		productImage, err = s.normalizer.Normalize(gctx, product.ImageURL)
		if err != nil {
			return fmt.Errorf("product image: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("adgen: variation preparation failed")
		return Result{}, err
	}

	image, err := s.images.GenerateVariationImage(ctx, prompt, productImage)
	if err != nil {
		log.Error().Err(err).Msg("adgen: variation image failed")
		return Result{}, err
	}
	log.Info().Str("style", prompt.Style).Msg("adgen: variation generated")
	return Result{ImageBase64: image, Prompt: prompt}, nil
}

// EditImage applies instruction to a previously generated image.
func (s *Service) EditImage(ctx context.Context, imageBase64, instruction string) (string, error) {
	out, err := s.images.Edit(ctx, imageBase64, instruction)
	if err != nil {
		s.logger.Error().Err(err).Str("op", "edit_image").Msg("adgen: edit failed")
		return "", err
	}
	return out, nil
}
