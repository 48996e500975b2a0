package handlers

import (
	"encoding/json"
	"net/http"

	"adstudio/internal/domain"
	"adstudio/internal/domain/jsoncfg"
	"adstudio/internal/middleware"
	"adstudio/internal/providers/image"
)

type generateAdRequest struct {
	ProductData domain.ProductData `json:"productData"`
}

type variationRequest struct {
	OriginalPrompt json.RawMessage    `json:"originalPrompt"`
	ProductData    domain.ProductData `json:"productData"`
}

type editImageRequest struct {
	ImageBase64 string `json:"imageBase64"`
	Prompt      string `json:"prompt"`
}

type adResponse struct {
	Success     bool            `json:"success"`
	ImageBase64 string          `json:"imageBase64"`
	Prompt      domain.AdPrompt `json:"prompt"`
}

type editImageResponse struct {
	Success     bool   `json:"success"`
	ImageBase64 string `json:"imageBase64"`
}

const aiNotConfigured = "The AI service is not configured. Please set GEMINI_API_KEY."

func (a *App) aiAvailable(w http.ResponseWriter) bool {
	if a.Ads == nil || !a.Ads.Available() {
		a.error(w, http.StatusServiceUnavailable, aiNotConfigured)
		return false
	}
	return true
}

// GenerateAd handles POST /generate-ad.
func (a *App) GenerateAd(w http.ResponseWriter, r *http.Request) {
	var req generateAdRequest
	if !a.decode(w, r, jsoncfg.GenerateAdRequestSchema, &req, "Invalid product data") {
		return
	}
	if !a.aiAvailable(w) {
		return
	}
	product := req.ProductData
	product.Features = domain.ClampFeatures(product.Features)

	result, err := a.Ads.GenerateAd(r.Context(), product, middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, "generate_ad", generatePolicy, err)
		return
	}
	a.json(w, http.StatusOK, adResponse{Success: true, ImageBase64: result.ImageBase64, Prompt: result.Prompt})
}

// CreateVariation handles POST /create-variation.
func (a *App) CreateVariation(w http.ResponseWriter, r *http.Request) {
	var req variationRequest
	if !a.decode(w, r, jsoncfg.VariationRequestSchema, &req, "Invalid data") {
		return
	}
	if !a.aiAvailable(w) {
		return
	}
	product := req.ProductData
	product.Features = domain.ClampFeatures(product.Features)

	result, err := a.Ads.CreateVariation(r.Context(), req.OriginalPrompt, product, middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, "create_variation", variationPolicy, err)
		return
	}
	a.json(w, http.StatusOK, adResponse{Success: true, ImageBase64: result.ImageBase64, Prompt: result.Prompt})
}

// EditImage handles POST /edit-image.
func (a *App) EditImage(w http.ResponseWriter, r *http.Request) {
	var req editImageRequest
	if !a.decode(w, r, jsoncfg.EditImageRequestSchema, &req, "Invalid data") {
		return
	}
	if !image.ValidBase64(req.ImageBase64) {
		a.error(w, http.StatusBadRequest, "imageBase64 is not valid base64 data")
		return
	}
	if !a.aiAvailable(w) {
		return
	}
	out, err := a.Ads.EditImage(r.Context(), req.ImageBase64, req.Prompt)
	if err != nil {
		a.fail(w, r, "edit_image", variationPolicy, err)
		return
	}
	a.json(w, http.StatusOK, editImageResponse{Success: true, ImageBase64: out})
}
