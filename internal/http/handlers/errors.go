package handlers

import (
	"errors"
	"net/http"

	"adstudio/internal/domain"
)

// statusPolicy maps error kinds to response codes for one endpoint. Kinds
// not listed are answered with 500.
type statusPolicy map[domain.ErrorKind]int

var (
	scrapePolicy = statusPolicy{
		domain.KindValidation:    http.StatusBadRequest,
		domain.KindConfiguration: http.StatusServiceUnavailable,
	}
	generatePolicy = statusPolicy{
		domain.KindValidation:    http.StatusBadRequest,
		domain.KindUpstreamData:  http.StatusBadRequest,
		domain.KindUpstreamAuth:  http.StatusUnauthorized,
		domain.KindUpstreamQuota: http.StatusTooManyRequests,
		domain.KindConfiguration: http.StatusServiceUnavailable,
	}
	variationPolicy = statusPolicy{
		domain.KindValidation:    http.StatusBadRequest,
		domain.KindConfiguration: http.StatusServiceUnavailable,
	}
)

func (p statusPolicy) status(err error) int {
	if code, ok := p[domain.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// userMessage renders err for API clients. Image fetch and conversion
// failures keep their detail since it names the failing status or format.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		return "The AI service is not configured. Please set GEMINI_API_KEY."
	case errors.Is(err, domain.ErrUnauthorized):
		return "Authentication error with the provider. Please check your API key."
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "The provider quota has been exceeded. Please try again later."
	case errors.Is(err, domain.ErrTimeout):
		return "The website took too long to respond. Try another URL or use the manual form."
	case errors.Is(err, domain.ErrInsufficientData):
		return "Could not extract sufficient product data. Please use the manual form."
	case errors.Is(err, domain.ErrImageFetch), errors.Is(err, domain.ErrImageConversion):
		return err.Error()
	case errors.Is(err, domain.ErrMissingProductImage):
		return "The original product image is required to create a variation."
	case errors.Is(err, domain.ErrEmptyResponse):
		return "No response from the AI provider."
	case errors.Is(err, domain.ErrInvalidPrompt):
		return "Could not generate a valid advertisement prompt."
	case errors.Is(err, domain.ErrEmptyImageResponse):
		return "The AI provider did not return an image."
	case errors.Is(err, domain.ErrProviderFailure):
		return "The upstream provider failed to process the request."
	case errors.Is(err, domain.ErrInvalidInput):
		return "Invalid request data."
	default:
		return "Unexpected error while processing the request."
	}
}

func (a *App) fail(w http.ResponseWriter, r *http.Request, op string, policy statusPolicy, err error) {
	code := policy.status(err)
	event := a.logger(r).Error()
	if code < http.StatusInternalServerError {
		event = a.logger(r).Warn()
	}
	event.Err(err).
		Str("op", op).
		Str("kind", string(domain.KindOf(err))).
		Int("status", code).
		Msg("request failed")
	a.error(w, code, userMessage(err))
}
