package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"adstudio/internal/adgen"
	"adstudio/internal/domain"
	"adstudio/internal/domain/jsoncfg"
	"adstudio/internal/infra"
)

// ProductExtractor scrapes product pages.
type ProductExtractor interface {
	Available() bool
	Extract(ctx context.Context, url string) (domain.ProductData, error)
}

// AdService runs the generation workflows.
type AdService interface {
	Available() bool
	GenerateAd(ctx context.Context, product domain.ProductData, locale string) (adgen.Result, error)
	CreateVariation(ctx context.Context, original json.RawMessage, product domain.ProductData, locale string) (adgen.Result, error)
	EditImage(ctx context.Context, imageBase64, instruction string) (string, error)
}

// App holds the dependencies shared by every handler. Provider clients are
// built once at startup and injected here.
type App struct {
	Extractor ProductExtractor
	Ads       AdService
	Logger    *infra.Logger
}

func NewApp(extractor ProductExtractor, ads AdService, logger *infra.Logger) *App {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &App{Extractor: extractor, Ads: ads, Logger: logger}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, errorResponse{Success: false, Error: message})
}

// logger returns the request scoped logger installed by the logging
// middleware, or the application logger outside of a request.
func (a *App) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return a.Logger
}

// decode reads the body, validates it against schema and unmarshals it into
// out. On failure the response is written and false is returned.
func (a *App) decode(w http.ResponseWriter, r *http.Request, schema *jsoncfg.Schema, out any, invalidMessage string) bool {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "Request body is too large")
			return false
		}
		a.error(w, http.StatusBadRequest, invalidMessage)
		return false
	}
	if err := schema.Decode(raw, out); err != nil {
		a.logger(r).Warn().Err(err).Str("path", r.URL.Path).Msg("request validation failed")
		a.error(w, http.StatusBadRequest, invalidMessage)
		return false
	}
	return true
}

// Preflight answers bare OPTIONS requests. CORS preflights carrying
// Access-Control-Request-Method are answered by the CORS middleware first.
func (a *App) Preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
