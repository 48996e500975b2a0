package prompt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"adstudio/internal/domain"
	"adstudio/internal/domain/jsoncfg"
	"adstudio/internal/infra"
	"adstudio/internal/providers/gemini"
)

const (
	adTemperature        = 0.7
	variationTemperature = 0.9
)

// TextGenerator is the text completion capability of the AI provider.
type TextGenerator interface {
	Available() bool
	GenerateText(ctx context.Context, prompt string, opts gemini.TextOptions) (string, error)
}

// Generator turns product data into AdPrompt documents.
type Generator struct {
	text   TextGenerator
	logger *infra.Logger
}

// NewGenerator wires a Generator around text.
func NewGenerator(text TextGenerator, logger *infra.Logger) *Generator {
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Generator{text: text, logger: logger}
}

// Available reports whether the AI provider is configured.
func (g *Generator) Available() bool {
	return g != nil && g.text != nil && g.text.Available()
}

// GenerateAdPrompt asks the model for a creative brief for product. locale
// selects the language of the on-image copy.
func (g *Generator) GenerateAdPrompt(ctx context.Context, product domain.ProductData, locale string) (domain.AdPrompt, error) {
	instruction := buildAdInstruction(product, locale)
	return g.complete(ctx, "ad", instruction, adTemperature)
}

// GenerateVariationPrompt asks the model for a brief that keeps the product
// facts of original but takes a different creative direction.
func (g *Generator) GenerateVariationPrompt(ctx context.Context, original json.RawMessage, product domain.ProductData, locale string) (domain.AdPrompt, error) {
	instruction := buildVariationInstruction(original, product, locale)
	return g.complete(ctx, "variation", instruction, variationTemperature)
}

func (g *Generator) complete(ctx context.Context, kind, instruction string, temperature float32) (domain.AdPrompt, error) {
	if !g.Available() {
		return domain.AdPrompt{}, fmt.Errorf("%w: AI provider api key is missing", domain.ErrNotConfigured)
	}
	raw, err := g.text.GenerateText(ctx, instruction, gemini.TextOptions{Temperature: temperature, JSON: true})
	if err != nil {
		return domain.AdPrompt{}, fmt.Errorf("generate %s prompt: %w", kind, err)
	}
	fragment := extractJSONFragment(raw)
	if fragment == "" {
		return domain.AdPrompt{}, fmt.Errorf("generate %s prompt: %w", kind, domain.ErrEmptyResponse)
	}
	prompt, err := jsoncfg.DecodeAdPrompt([]byte(fragment))
	if err != nil {
		g.logger.Warn().Err(err).Str("kind", kind).Str("raw", truncate(raw, 300)).Msg("prompt: model returned an invalid prompt")
		return domain.AdPrompt{}, fmt.Errorf("generate %s prompt: %w", kind, err)
	}
	g.logger.Info().Str("kind", kind).Str("style", prompt.Style).Str("mood", prompt.Mood).Msg("prompt: generated")
	return prompt, nil
}

const promptShape = `{
  "style": "visual style of the advertisement",
  "background": "background description",
  "mainElements": "main elements and how the product is shown",
  "text": {
    "headline": "main headline",
    "tagline": "supporting tagline",
    "callToAction": "call to action"
  },
  "colors": "color palette",
  "composition": "layout and composition",
  "mood": "overall mood"
}`

func buildAdInstruction(product domain.ProductData, locale string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are an expert advertising creative director. Create a structured prompt for a striking product advertisement image.\n\n")
	sb.WriteString("Product information:\n")
	fmt.Fprintf(sb, "- Title: %s\n", product.Title)
	fmt.Fprintf(sb, "- Description: %s\n", product.Description)
	fmt.Fprintf(sb, "- Price: %s\n", product.Price)
	if len(product.Features) > 0 {
		fmt.Fprintf(sb, "- Key features: %s\n", strings.Join(product.Features, "; "))
	}
	sb.WriteString("\nRespond ONLY with a JSON object with exactly this structure and no other keys:\n")
	sb.WriteString(promptShape)
	sb.WriteString("\n\nRules:\n")
	fmt.Fprintf(sb, "- headline, tagline and callToAction must be %d words or less\n", domain.MaxCopyWords)
	sb.WriteString("- Include the exact price when it is known\n")
	sb.WriteString("- NEVER include phone numbers or invent URLs\n")
	fmt.Fprintf(sb, "- Write the text fields in %s\n", languageName(locale))
	sb.WriteString("- The product must stay exactly as it appears in its photo; describe the design around it\n")
	return sb.String()
}

func buildVariationInstruction(original json.RawMessage, product domain.ProductData, locale string) string {
	var indented bytes.Buffer
	if err := json.Indent(&indented, original, "", "  "); err != nil {
		indented.Reset()
		indented.Write(original)
	}
	brand := "Not specified"
	if fields := strings.Fields(product.Title); len(fields) > 0 {
		brand = fields[0]
	}

	sb := &strings.Builder{}
	sb.WriteString("You are creating a VARIATION of an existing advertisement.\n\n")
	sb.WriteString("Here is the original prompt that was used:\n")
	sb.WriteString(indented.String())
	sb.WriteString("\n\nCreate a NEW JSON prompt for the SAME product but with a DIFFERENT creative approach. The variation should:\n")
	sb.WriteString("1. Keep the EXACT SAME product, do NOT change the product appearance in any way\n")
	sb.WriteString("2. Keep the same product information (name, price, features)\n")
	sb.WriteString("3. Use a DIFFERENT visual style (background, colors, composition, mood)\n")
	sb.WriteString("4. Try a DIFFERENT marketing angle or emotional appeal\n")
	sb.WriteString("5. Use DIFFERENT typography styles and layouts\n\n")
	sb.WriteString("Product context for the variation:\n")
	fmt.Fprintf(sb, "- Brand: %s\n", brand)
	fmt.Fprintf(sb, "- Product: %s\n", orNotSpecified(product.Title))
	fmt.Fprintf(sb, "- Description: %s\n", orNotSpecified(product.Description))
	if product.Price != "" {
		fmt.Fprintf(sb, "- Price: %s (MUST include this exact price in the variation)\n", product.Price)
	}
	if len(product.Features) > 0 {
		fmt.Fprintf(sb, "- Key features: %s\n", strings.Join(product.Features, "; "))
	}
	sb.WriteString("\nIMPORTANT:\n")
	sb.WriteString("- Do NOT copy the style, colors, or composition of the original\n")
	sb.WriteString("- Return ONLY the JSON with exactly this structure:\n")
	sb.WriteString(promptShape)
	fmt.Fprintf(sb, "\n- All text must be %d words or less\n", domain.MaxCopyWords)
	sb.WriteString("- NEVER include phone numbers or invent URLs\n")
	fmt.Fprintf(sb, "- Write the text fields in %s\n", languageName(locale))
	return sb.String()
}

// languageName renders a BCP 47 locale as an English language name, for
// example "es" becomes "Spanish". Unknown locales fall back to English.
func languageName(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		return "English"
	}
	base, _ := tag.Base()
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return "English"
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}
