package handlers

import (
	"net/http"

	"adstudio/internal/domain"
	"adstudio/internal/domain/jsoncfg"
)

type scrapeRequest struct {
	URL string `json:"url"`
}

type scrapeResponse struct {
	Success bool               `json:"success"`
	Data    domain.ProductData `json:"data"`
}

// ScrapeProduct handles POST /scrape-product.
func (a *App) ScrapeProduct(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if !a.decode(w, r, jsoncfg.ScrapeRequestSchema, &req, "Invalid URL") {
		return
	}
	if a.Extractor == nil || !a.Extractor.Available() {
		a.error(w, http.StatusServiceUnavailable, "Scraping is not configured. Please use the manual form to enter the product data.")
		return
	}
	product, err := a.Extractor.Extract(r.Context(), req.URL)
	if err != nil {
		a.fail(w, r, "scrape_product", scrapePolicy, err)
		return
	}
	a.json(w, http.StatusOK, scrapeResponse{Success: true, Data: product})
}
