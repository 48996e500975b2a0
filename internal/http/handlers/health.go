package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status  string `json:"status"`
	Scraper bool   `json:"scraper"`
	AI      bool   `json:"ai"`
}

// Health reports liveness and which providers have credentials, so a client
// can fall back to manual product entry when scraping is unavailable.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Scraper: a.Extractor != nil && a.Extractor.Available(),
		AI:      a.Ads != nil && a.Ads.Available(),
	})
}
