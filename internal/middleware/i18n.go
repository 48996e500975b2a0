package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}

var LocaleKey = localeContextKey{}

// SupportedLocales lists the languages ad copy can be written in. The first
// entry is the last-resort fallback.
var SupportedLocales = []language.Tag{
	language.English,
	language.Spanish,
	language.Indonesian,
	language.Portuguese,
	language.French,
	language.German,
}

var localeMatcher = language.NewMatcher(SupportedLocales)

// I18N resolves the request locale from X-Locale, then Accept-Language,
// then defaultLocale, and stores its base language code in the context.
func I18N(defaultLocale string) func(http.Handler) http.Handler {
	fallback := matchLocale(defaultLocale)
	if fallback == "" {
		fallback = SupportedLocales[0].String()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := detectLocale(r, fallback)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string) string {
	if v := matchLocale(r.Header.Get("X-Locale")); v != "" {
		return v
	}
	if v := parseAcceptLanguage(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	return fallback
}

func parseAcceptLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	return SupportedLocales[idx].String()
}

// matchLocale maps a single locale such as "pt-BR" or "ID" onto a supported
// base language. Unsupported or malformed input yields "".
func matchLocale(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return ""
	}
	return SupportedLocales[idx].String()
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return SupportedLocales[0].String()
}
