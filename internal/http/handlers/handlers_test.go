package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adstudio/internal/adgen"
	"adstudio/internal/domain"
)

type fakeExtractor struct {
	available bool
	product   domain.ProductData
	err       error
	gotURL    string
}

func (f *fakeExtractor) Available() bool { return f.available }

func (f *fakeExtractor) Extract(_ context.Context, url string) (domain.ProductData, error) {
	f.gotURL = url
	return f.product, f.err
}

type fakeAds struct {
	available  bool
	result     adgen.Result
	edited     string
	err        error
	gotProduct domain.ProductData
	gotOrig    json.RawMessage
	calls      int
}

func (f *fakeAds) Available() bool { return f.available }

func (f *fakeAds) GenerateAd(_ context.Context, product domain.ProductData, _ string) (adgen.Result, error) {
	f.calls++
	f.gotProduct = product
	return f.result, f.err
}

func (f *fakeAds) CreateVariation(_ context.Context, original json.RawMessage, product domain.ProductData, _ string) (adgen.Result, error) {
	f.calls++
	f.gotOrig = original
	f.gotProduct = product
	return f.result, f.err
}

func (f *fakeAds) EditImage(context.Context, string, string) (string, error) {
	f.calls++
	return f.edited, f.err
}

var sampleResult = adgen.Result{
	ImageBase64: "aW1hZ2U=",
	Prompt: domain.AdPrompt{
		Style: "bold", Background: "sky", MainElements: "mug",
		Text:   domain.AdCopy{Headline: "Hi", Tagline: "There", CallToAction: "Buy"},
		Colors: "blue", Composition: "center", Mood: "happy",
	},
}

const validProduct = `{"title":"Acme Mug","description":"A sturdy stoneware mug","price":"$12.00","features":["Stoneware"],"imageUrl":"https://cdn.example/mug.jpg"}`

func do(t *testing.T, handler http.HandlerFunc, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestScrapeProduct(t *testing.T) {
	product := domain.ProductData{Title: "Acme Mug", Description: domain.PlaceholderDescription, Price: "$12.00", Features: []string{}, ImageURL: ""}
	extractor := &fakeExtractor{available: true, product: product}
	app := NewApp(extractor, &fakeAds{}, nil)

	rec, body := do(t, app.ScrapeProduct, `{"url":"https://shop.example/item"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://shop.example/item", extractor.gotURL)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Acme Mug", data["title"])
	assert.Equal(t, []any{}, data["features"])
	assert.Equal(t, "", data["imageUrl"])
}

func TestScrapeProductErrors(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		body      string
		err       error
		want      int
	}{
		{name: "malformed json", available: true, body: `{`, want: http.StatusBadRequest},
		{name: "invalid url", available: true, body: `{"url":"not a url"}`, want: http.StatusBadRequest},
		{name: "non http url", available: true, body: `{"url":"ftp://shop.example/item"}`, want: http.StatusBadRequest},
		{name: "validation before availability", available: false, body: `{}`, want: http.StatusBadRequest},
		{name: "not configured", available: false, body: `{"url":"https://shop.example/item"}`, want: http.StatusServiceUnavailable},
		{name: "insufficient data", available: true, body: `{"url":"https://shop.example/item"}`, err: fmt.Errorf("%w: nothing", domain.ErrInsufficientData), want: http.StatusInternalServerError},
		{name: "timeout", available: true, body: `{"url":"https://shop.example/item"}`, err: fmt.Errorf("slow: %w", domain.ErrTimeout), want: http.StatusInternalServerError},
		{name: "provider auth", available: true, body: `{"url":"https://shop.example/item"}`, err: domain.ErrUnauthorized, want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := NewApp(&fakeExtractor{available: tc.available, err: tc.err}, &fakeAds{}, nil)
			rec, body := do(t, app.ScrapeProduct, tc.body)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGenerateAd(t *testing.T) {
	ads := &fakeAds{available: true, result: sampleResult}
	app := NewApp(&fakeExtractor{}, ads, nil)

	rec, body := do(t, app.GenerateAd, `{"productData":`+validProduct+`}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "aW1hZ2U=", body["imageBase64"])
	prompt := body["prompt"].(map[string]any)
	assert.Equal(t, "bold", prompt["style"])
	assert.Equal(t, "Buy", prompt["text"].(map[string]any)["callToAction"])
	assert.Equal(t, "Acme Mug", ads.gotProduct.Title)
}

func TestGenerateAdErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		body      string
		err       error
		want      int
	}{
		{name: "short description", available: true, body: `{"productData":{"title":"x","description":"short","price":"$1","features":[],"imageUrl":""}}`, want: http.StatusBadRequest},
		{name: "bad image url", available: true, body: `{"productData":{"title":"x","description":"long enough text","price":"$1","features":[],"imageUrl":"nope"}}`, want: http.StatusBadRequest},
		{name: "too many features", available: true, body: `{"productData":{"title":"x","description":"long enough text","price":"$1","features":["a","b","c","d","e","f"],"imageUrl":""}}`, want: http.StatusBadRequest},
		{name: "not configured", available: false, body: `{"productData":` + validProduct + `}`, want: http.StatusServiceUnavailable},
		{name: "image fetch", available: true, body: `{"productData":` + validProduct + `}`, err: fmt.Errorf("%w: failed to fetch image: status 404", domain.ErrImageFetch), want: http.StatusBadRequest},
		{name: "image conversion", available: true, body: `{"productData":` + validProduct + `}`, err: domain.ErrImageConversion, want: http.StatusBadRequest},
		{name: "auth", available: true, body: `{"productData":` + validProduct + `}`, err: domain.ErrUnauthorized, want: http.StatusUnauthorized},
		{name: "quota", available: true, body: `{"productData":` + validProduct + `}`, err: domain.ErrQuotaExceeded, want: http.StatusTooManyRequests},
		{name: "invalid prompt", available: true, body: `{"productData":` + validProduct + `}`, err: domain.ErrInvalidPrompt, want: http.StatusInternalServerError},
		{name: "no image", available: true, body: `{"productData":` + validProduct + `}`, err: domain.ErrEmptyImageResponse, want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := NewApp(&fakeExtractor{}, &fakeAds{available: tc.available, err: tc.err}, nil)
			rec, body := do(t, app.GenerateAd, tc.body)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestGenerateAdImageFetchMessage(t *testing.T) {
	err := fmt.Errorf("product image: %w: failed to fetch image: status 404", domain.ErrImageFetch)
	app := NewApp(&fakeExtractor{}, &fakeAds{available: true, err: err}, nil)
	_, body := do(t, app.GenerateAd, `{"productData":`+validProduct+`}`)
	assert.Contains(t, body["error"], "status 404")
}

func TestCreateVariation(t *testing.T) {
	ads := &fakeAds{available: true, result: sampleResult}
	app := NewApp(&fakeExtractor{}, ads, nil)

	rec, body := do(t, app.CreateVariation, `{"originalPrompt":{"style":"minimal"},"productData":{"title":"Acme Mug","description":"d","price":"$12.00","imageUrl":"https://cdn.example/mug.jpg"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "aW1hZ2U=", body["imageBase64"])
	assert.JSONEq(t, `{"style":"minimal"}`, string(ads.gotOrig))
	assert.Equal(t, []string{}, ads.gotProduct.Features)
}

func TestCreateVariationErrors(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		body      string
		err       error
		want      int
	}{
		{name: "prompt not object", available: true, body: `{"originalPrompt":"x","productData":{"title":"a","description":"b","price":"c"}}`, want: http.StatusBadRequest},
		{name: "missing product", available: true, body: `{"originalPrompt":{}}`, want: http.StatusBadRequest},
		{name: "not configured", available: false, body: `{"originalPrompt":{},"productData":{"title":"a","description":"b","price":"c"}}`, want: http.StatusServiceUnavailable},
		{name: "missing product image", available: true, body: `{"originalPrompt":{},"productData":{"title":"a","description":"b","price":"c"}}`, err: domain.ErrMissingProductImage, want: http.StatusInternalServerError},
		{name: "quota is not special here", available: true, body: `{"originalPrompt":{},"productData":{"title":"a","description":"b","price":"c"}}`, err: domain.ErrQuotaExceeded, want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := NewApp(&fakeExtractor{}, &fakeAds{available: tc.available, err: tc.err}, nil)
			rec, body := do(t, app.CreateVariation, tc.body)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestEditImage(t *testing.T) {
	img := base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})
	ads := &fakeAds{available: true, edited: "ZWRpdGVk"}
	app := NewApp(&fakeExtractor{}, ads, nil)

	rec, body := do(t, app.EditImage, `{"imageBase64":"`+img+`","prompt":"add snow"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ZWRpdGVk", body["imageBase64"])
	_, hasPrompt := body["prompt"]
	assert.False(t, hasPrompt)

	rec, _ = do(t, app.EditImage, `{"imageBase64":"%%%","prompt":"add snow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, app.EditImage, `{"imageBase64":"`+img+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ads.err = domain.ErrEmptyImageResponse
	rec, _ = do(t, app.EditImage, `{"imageBase64":"`+img+`","prompt":"add snow"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	app = NewApp(&fakeExtractor{}, &fakeAds{}, nil)
	rec, _ = do(t, app.EditImage, `{"imageBase64":"`+img+`","prompt":"add snow"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	app := NewApp(&fakeExtractor{available: false}, &fakeAds{available: true}, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	app.Health(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","scraper":false,"ai":true}`, rec.Body.String())
}
