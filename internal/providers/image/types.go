package image

import (
	"context"

	"adstudio/internal/domain"
	"adstudio/internal/providers/gemini"
)

// Renderer is the image capability of the AI provider. Parts are sent in
// order as a single user message; the first inline image of the response is
// returned base64 encoded.
type Renderer interface {
	Available() bool
	GenerateImage(ctx context.Context, parts []gemini.Part) (string, error)
}

// Normalizer fetches a product image and encodes it for the provider.
type Normalizer interface {
	Normalize(ctx context.Context, imageURL string) (domain.ProcessedImage, error)
}
