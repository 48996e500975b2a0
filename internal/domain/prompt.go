package domain

// AdPrompt is the structured creative brief returned by the text model and
// fed to the image model.
type AdPrompt struct {
	Style        string `json:"style"`
	Background   string `json:"background"`
	MainElements string `json:"mainElements"`
	Text         AdCopy `json:"text"`
	Colors       string `json:"colors"`
	Composition  string `json:"composition"`
	Mood         string `json:"mood"`
}

// AdCopy is the on-image copy. Each field is expected to stay within
// MaxCopyWords words; the limit is requested from the model, not enforced.
type AdCopy struct {
	Headline     string `json:"headline"`
	Tagline      string `json:"tagline"`
	CallToAction string `json:"callToAction"`
}

// MaxCopyWords is the soft word limit for every AdCopy field.
const MaxCopyWords = 8
