package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"adstudio/internal/http/handlers"
	"adstudio/internal/infra"
	"adstudio/internal/middleware"
)

// NewRouter wires the HTTP surface: the four generation endpoints with
// preflight support, health, metrics, and API docs.
func NewRouter(cfg *infra.Config, app *handlers.App, logger infra.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(logger),
		chimw.Recoverer,
		middleware.Metrics,
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.I18N(cfg.DefaultLocale),
	)

	r.Get("/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/openapi.json", app.OpenAPIJSON)
	r.Get("/docs", app.OpenAPIDocs)

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.MaxBodyBytes(cfg.MaxBodyBytes),
			middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		)
		r.Post("/scrape-product", app.ScrapeProduct)
		r.Post("/generate-ad", app.GenerateAd)
		r.Post("/create-variation", app.CreateVariation)
		r.Post("/edit-image", app.EditImage)
	})

	for _, path := range []string{"/scrape-product", "/generate-ad", "/create-variation", "/edit-image"} {
		r.Options(path, app.Preflight)
	}

	return r
}
