package domain

const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeWEBP = "image/webp"
)

// ProcessedImage is an image encoded in a format the AI provider accepts.
type ProcessedImage struct {
	Base64   string `json:"base64"`
	MIMEType string `json:"mimeType"`
}

// SupportedImageMIMEType reports whether the AI provider accepts mimeType as is.
func SupportedImageMIMEType(mimeType string) bool {
	switch mimeType {
	case MIMETypeJPEG, MIMETypePNG, MIMETypeWEBP:
		return true
	default:
		return false
	}
}
