package domain

import "errors"

var (
	ErrNotConfigured       = errors.New("service not configured")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrQuotaExceeded       = errors.New("quota exceeded")
	ErrTimeout             = errors.New("timeout")
	ErrInsufficientData    = errors.New("insufficient product data")
	ErrProviderFailure     = errors.New("provider failure")
	ErrImageFetch          = errors.New("image fetch failed")
	ErrImageConversion     = errors.New("image conversion failed")
	ErrEmptyResponse       = errors.New("empty response from AI provider")
	ErrInvalidPrompt       = errors.New("invalid prompt")
	ErrEmptyImageResponse  = errors.New("no image returned by AI provider")
	ErrMissingProductImage = errors.New("product image is required")
)

// ErrorKind groups failures by who is at fault and how a caller should react.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration_missing"
	KindValidation    ErrorKind = "validation_failed"
	KindUpstreamAuth  ErrorKind = "upstream_auth"
	KindUpstreamQuota ErrorKind = "upstream_quota"
	KindUpstreamData  ErrorKind = "upstream_data"
	KindInternal      ErrorKind = "internal"
)

// KindOf classifies err into the service error taxonomy. Unknown errors are
// KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConfigured):
		return KindConfiguration
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrUnauthorized):
		return KindUpstreamAuth
	case errors.Is(err, ErrQuotaExceeded):
		return KindUpstreamQuota
	case errors.Is(err, ErrImageFetch),
		errors.Is(err, ErrImageConversion),
		errors.Is(err, ErrInsufficientData):
		return KindUpstreamData
	default:
		return KindInternal
	}
}
