package domain

const (
	// MaxProductFeatures caps the feature list carried by ProductData.
	MaxProductFeatures = 5

	PlaceholderTitle       = "Product without title"
	PlaceholderDescription = "No description available"
	PlaceholderPrice       = "Price not available"
)

// ProductData holds the normalized product facts that drive ad generation.
type ProductData struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Features    []string `json:"features"`
	ImageURL    string   `json:"imageUrl"`
}

// IsEmpty reports whether none of the fields needed for an ad were recovered.
func (p ProductData) IsEmpty() bool {
	return p.Title == "" && p.Description == "" && p.Price == ""
}

// WithDefaults fills missing fields with placeholder text and clamps the
// feature list.
func (p ProductData) WithDefaults() ProductData {
	if p.Title == "" {
		p.Title = PlaceholderTitle
	}
	if p.Description == "" {
		p.Description = PlaceholderDescription
	}
	if p.Price == "" {
		p.Price = PlaceholderPrice
	}
	p.Features = ClampFeatures(p.Features)
	return p
}

// ClampFeatures drops blank entries and keeps at most MaxProductFeatures.
// The result is never nil so it encodes as an empty JSON array.
func ClampFeatures(features []string) []string {
	out := make([]string, 0, MaxProductFeatures)
	for _, f := range features {
		if f == "" {
			continue
		}
		out = append(out, f)
		if len(out) == MaxProductFeatures {
			break
		}
	}
	return out
}
