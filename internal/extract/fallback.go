package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"adstudio/internal/domain"
)

// Page is the raw content of a scraped page that the fallback rules read.
type Page struct {
	Markdown        string
	HTML            string
	MetaTitle       string
	MetaDescription string
	BaseURL         string

	doc       *goquery.Document
	docParsed bool
}

// Document parses the HTML once and returns nil if there is none.
func (p *Page) Document() *goquery.Document {
	if p.docParsed {
		return p.doc
	}
	p.docParsed = true
	if strings.TrimSpace(p.HTML) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
	if err != nil {
		return nil
	}
	p.doc = doc
	return doc
}

// FallbackStrategy recovers product fields from raw markdown and HTML when
// structured extraction is unavailable. Each rule can be used on its own.
type FallbackStrategy struct {
	Title       TitleRule
	Description DescriptionRule
	Price       PriceRule
	Features    FeaturesRule
	Image       ImageRule
}

// Apply runs every rule against page. Missing fields are left empty so the
// caller can decide whether enough was recovered.
func (s FallbackStrategy) Apply(page *Page) domain.ProductData {
	return domain.ProductData{
		Title:       s.Title.Extract(page),
		Description: s.Description.Extract(page),
		Price:       s.Price.Extract(page),
		Features:    s.Features.Extract(page),
		ImageURL:    s.Image.Extract(page),
	}
}

var (
	markdownHeadingRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	freeTextLineRe    = regexp.MustCompile(`(?m)^[^#\n]{50,}$`)
	listItemRe        = regexp.MustCompile(`(?m)^[\*\-]\s+(.+)$`)

	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\d{1,3}(?:,\d{3})*(?:\.\d{2})?`),
		regexp.MustCompile(`USD\s*\d{1,3}(?:,\d{3})*(?:\.\d{2})?`),
		regexp.MustCompile(`€\s*\d{1,3}(?:,\d{3})*(?:\.\d{2})?`),
		regexp.MustCompile(`£\s*\d{1,3}(?:,\d{3})*(?:\.\d{2})?`),
	}
)

// TitleRule: metadata title, then the first markdown level-1 heading, then
// the first <h1>.
type TitleRule struct{}

func (TitleRule) Extract(page *Page) string {
	if title := cleanText(page.MetaTitle); title != "" {
		return title
	}
	if m := markdownHeadingRe.FindStringSubmatch(page.Markdown); m != nil {
		if title := cleanText(m[1]); title != "" {
			return title
		}
	}
	if doc := page.Document(); doc != nil {
		return cleanText(doc.Find("h1").First().Text())
	}
	return ""
}

// DescriptionRule: metadata description, then the first markdown line of at
// least 50 characters with no heading marker.
type DescriptionRule struct{}

func (DescriptionRule) Extract(page *Page) string {
	if desc := cleanText(page.MetaDescription); desc != "" {
		return desc
	}
	if m := freeTextLineRe.FindString(page.Markdown); m != "" {
		return cleanText(m)
	}
	return ""
}

// PriceRule scans markdown and HTML for currency prefixed amounts. Patterns
// are tried in order ($, USD, €, £); within the first pattern that matches,
// the largest amount wins. A smaller sale price next to a larger list price
// is therefore misread.
type PriceRule struct{}

func (PriceRule) Extract(page *Page) string {
	for _, re := range pricePatterns {
		matches := append(re.FindAllString(page.Markdown, -1), re.FindAllString(page.HTML, -1)...)
		if len(matches) == 0 {
			continue
		}
		best, bestValue := matches[0], priceValue(matches[0])
		for _, m := range matches[1:] {
			if v := priceValue(m); v > bestValue {
				best, bestValue = m, v
			}
		}
		return best
	}
	return ""
}

func priceValue(match string) float64 {
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, match)
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0
	}
	return v
}

// FeaturesRule takes the first markdown bullet items with their marker
// stripped.
type FeaturesRule struct{}

func (FeaturesRule) Extract(page *Page) []string {
	features := make([]string, 0, domain.MaxProductFeatures)
	for _, m := range listItemRe.FindAllStringSubmatch(page.Markdown, domain.MaxProductFeatures) {
		if item := cleanText(m[1]); item != "" {
			features = append(features, item)
		}
	}
	return features
}

var (
	excludedImageMarkers = []string{"logo", "icon", "banner", "pixel"}
	imageExtensions      = []string{".jpg", ".jpeg", ".png", ".webp"}
)

// ImageRule picks the first <img> whose source looks like a product photo:
// no logo/icon/banner/pixel marker and a raster extension. Relative sources
// are resolved against the page URL.
type ImageRule struct{}

func (ImageRule) Extract(page *Page) string {
	doc := page.Document()
	if doc == nil {
		return ""
	}
	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src := strings.TrimSpace(sel.AttrOr("src", ""))
		if !isProductImage(src) {
			return true
		}
		if resolved := resolveURL(page.BaseURL, src); resolved != "" {
			found = resolved
			return false
		}
		return true
	})
	return found
}

func isProductImage(src string) bool {
	if src == "" || strings.HasPrefix(src, "data:") {
		return false
	}
	lower := strings.ToLower(src)
	for _, marker := range excludedImageMarkers {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

func resolveURL(base, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if refURL.IsAbs() {
		if refURL.Scheme != "http" && refURL.Scheme != "https" {
			return ""
		}
		return refURL.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ""
	}
	return baseURL.ResolveReference(refURL).String()
}

// cleanText NFC-normalizes s and collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
