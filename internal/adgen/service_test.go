package adgen

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adstudio/internal/domain"
)

type fakePrompts struct {
	prompt    domain.AdPrompt
	err       error
	calls     atomic.Int32
	gotLocale string
	gotOrig   json.RawMessage
	block     bool
}

func (f *fakePrompts) Available() bool { return true }

func (f *fakePrompts) GenerateAdPrompt(_ context.Context, _ domain.ProductData, locale string) (domain.AdPrompt, error) {
	f.calls.Add(1)
	f.gotLocale = locale
	return f.prompt, f.err
}

func (f *fakePrompts) GenerateVariationPrompt(ctx context.Context, original json.RawMessage, _ domain.ProductData, locale string) (domain.AdPrompt, error) {
	f.calls.Add(1)
	f.gotOrig = original
	f.gotLocale = locale
	if f.block {
		<-ctx.Done()
		return domain.AdPrompt{}, ctx.Err()
	}
	return f.prompt, f.err
}

type fakeImages struct {
	out          string
	err          error
	calls        atomic.Int32
	gotURL       string
	gotProduct   domain.ProcessedImage
	gotPrompt    domain.AdPrompt
	gotEditImage string
}

func (f *fakeImages) Available() bool { return true }

func (f *fakeImages) GenerateAdImage(_ context.Context, prompt domain.AdPrompt, imageURL string) (string, error) {
	f.calls.Add(1)
	f.gotPrompt = prompt
	f.gotURL = imageURL
	return f.out, f.err
}

func (f *fakeImages) GenerateVariationImage(_ context.Context, prompt domain.AdPrompt, product domain.ProcessedImage) (string, error) {
	f.calls.Add(1)
	f.gotPrompt = prompt
	f.gotProduct = product
	return f.out, f.err
}

func (f *fakeImages) Edit(_ context.Context, imageBase64, _ string) (string, error) {
	f.calls.Add(1)
	f.gotEditImage = imageBase64
	return f.out, f.err
}

type fakeNormalizer struct {
	image domain.ProcessedImage
	err   error
	calls atomic.Int32
}

func (f *fakeNormalizer) Normalize(context.Context, string) (domain.ProcessedImage, error) {
	f.calls.Add(1)
	return f.image, f.err
}

var brief = domain.AdPrompt{
	Style:        "neon noir",
	Background:   "rainy street",
	MainElements: "mug under a neon sign",
	Text:         domain.AdCopy{Headline: "Night shift fuel", Tagline: "Stay sharp", CallToAction: "Grab yours"},
	Colors:       "magenta and teal",
	Composition:  "diagonal",
	Mood:         "moody",
}

var originalPrompt = json.RawMessage(`{"style":"minimal"}`)

func mug(imageURL string) domain.ProductData {
	return domain.ProductData{Title: "Acme Mug", Description: "A sturdy stoneware mug", Price: "$12.00", Features: []string{}, ImageURL: imageURL}
}

func TestGenerateAd(t *testing.T) {
	prompts := &fakePrompts{prompt: brief}
	images := &fakeImages{out: "aW1n"}
	svc := NewService(prompts, images, &fakeNormalizer{}, nil)

	got, err := svc.GenerateAd(context.Background(), mug("https://cdn.example/mug.jpg"), "fr")
	require.NoError(t, err)
	assert.Equal(t, Result{ImageBase64: "aW1n", Prompt: brief}, got)
	assert.Equal(t, "fr", prompts.gotLocale)
	assert.Equal(t, "https://cdn.example/mug.jpg", images.gotURL)
	assert.Equal(t, brief, images.gotPrompt)
}

func TestGenerateAdStopsOnPromptFailure(t *testing.T) {
	prompts := &fakePrompts{err: fmt.Errorf("generate ad prompt: %w", domain.ErrInvalidPrompt)}
	images := &fakeImages{}
	_, err := NewService(prompts, images, &fakeNormalizer{}, nil).GenerateAd(context.Background(), mug(""), "en")
	assert.ErrorIs(t, err, domain.ErrInvalidPrompt)
	assert.Zero(t, images.calls.Load())
}

func TestCreateVariationRequiresProductImage(t *testing.T) {
	prompts := &fakePrompts{prompt: brief}
	images := &fakeImages{out: "aW1n"}
	normalizer := &fakeNormalizer{}
	svc := NewService(prompts, images, normalizer, nil)

	_, err := svc.CreateVariation(context.Background(), originalPrompt, mug(""), "en")
	assert.ErrorIs(t, err, domain.ErrMissingProductImage)
	assert.Zero(t, prompts.calls.Load())
	assert.Zero(t, normalizer.calls.Load())
	assert.Zero(t, images.calls.Load())
}

func TestCreateVariation(t *testing.T) {
	prompts := &fakePrompts{prompt: brief}
	images := &fakeImages{out: "dmFy"}
	product := domain.ProcessedImage{Base64: "AAEC", MIMEType: domain.MIMETypeJPEG}
	normalizer := &fakeNormalizer{image: product}

	got, err := NewService(prompts, images, normalizer, nil).CreateVariation(context.Background(), originalPrompt, mug("https://cdn.example/mug.gif"), "de")
	require.NoError(t, err)
	assert.Equal(t, Result{ImageBase64: "dmFy", Prompt: brief}, got)
	assert.JSONEq(t, string(originalPrompt), string(prompts.gotOrig))
	assert.Equal(t, "de", prompts.gotLocale)
	assert.Equal(t, product, images.gotProduct)
	assert.Equal(t, int32(1), normalizer.calls.Load())
}

func TestCreateVariationImageFailureCancelsPrompt(t *testing.T) {
	prompts := &fakePrompts{block: true}
	images := &fakeImages{}
	normalizer := &fakeNormalizer{err: fmt.Errorf("%w: failed to fetch image: status 404", domain.ErrImageFetch)}

	_, err := NewService(prompts, images, normalizer, nil).CreateVariation(context.Background(), originalPrompt, mug("https://cdn.example/gone.jpg"), "en")
	assert.ErrorIs(t, err, domain.ErrImageFetch)
	assert.Zero(t, images.calls.Load())
}

func TestEditImage(t *testing.T) {
	images := &fakeImages{out: "ZWRpdA=="}
	got, err := NewService(&fakePrompts{}, images, &fakeNormalizer{}, nil).EditImage(context.Background(), "AAEC", "add snow")
	require.NoError(t, err)
	assert.Equal(t, "ZWRpdA==", got)
	assert.Equal(t, "AAEC", images.gotEditImage)

	images.err = domain.ErrEmptyImageResponse
	_, err = NewService(&fakePrompts{}, images, &fakeNormalizer{}, nil).EditImage(context.Background(), "AAEC", "add snow")
	assert.ErrorIs(t, err, domain.ErrEmptyImageResponse)
}
