package imagegen

import (
	"encoding/json"
	"strings"

	"adstudio/internal/domain"
)

// Mode selects how strictly the product reference must be preserved.
type Mode int

const (
	ModeAd Mode = iota
	ModeVariation
)

// BuildInstruction renders the text part sent alongside a product image.
// Without a reference image the serialized prompt is sent on its own.
func BuildInstruction(prompt domain.AdPrompt, mode Mode, withImage bool) string {
	payload, _ := json.Marshal(prompt)
	if !withImage {
		return string(payload)
	}
	parts := []string{
		"Generate a professional advertisement image based on this JSON specification: " + string(payload),
	}
	switch mode {
	case ModeVariation:
		parts = append(parts,
			"CRITICAL INSTRUCTION: The product shown in the advertisement MUST be EXACTLY the same as the product in the provided image.",
			"Do NOT change the product in any way.",
			"Only change the advertisement design, layout, colors, background, and text around the product.",
			"The product itself must remain identical to the provided image.",
		)
	default:
		parts = append(parts,
			"Use the provided image as the product to advertise.",
			"Keep the product exactly as it appears: same shape, colors, proportions, and details.",
			"Build the advertisement around it following the specification.",
		)
	}
	parts = append(parts, "Render all text legibly and never add phone numbers or URLs.")
	return strings.Join(parts, " ")
}
