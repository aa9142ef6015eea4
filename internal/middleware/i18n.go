package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// LocaleMatcher picks one of the supported locales from request hints.
type LocaleMatcher interface {
	Match(accept, country string) language.Tag
}

// I18N stores the request locale and, when known, the caller's country.
// X-Locale takes precedence over Accept-Language.
func I18N(matcher LocaleMatcher, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			accept := r.Header.Get("X-Locale")
			if strings.TrimSpace(accept) == "" {
				accept = r.Header.Get("Accept-Language")
			}
			ctx := context.WithValue(r.Context(), localeContextKey{}, matcher.Match(accept, country))
			if country != "" {
				ctx = context.WithValue(ctx, countryContextKey{}, country)
			}
			w.Header().Add("Vary", "Accept-Language")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LocaleFromContext returns the matched locale, English when none was set.
func LocaleFromContext(ctx context.Context) language.Tag {
	if v, ok := ctx.Value(localeContextKey{}).(language.Tag); ok {
		return v
	}
	return language.English
}

func ContextWithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeContextKey{}, tag)
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(countryContextKey{}).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry resolves a best-effort ISO country code: proxy headers
// first, then the region of the preferred locale, then a GeoIP lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	headerHints := []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if region := localeRegion(r.Header.Get("X-Locale")); region != "" {
		return region
	}
	if region := localeRegion(r.Header.Get("Accept-Language")); region != "" {
		return region
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

func localeRegion(accept string) string {
	for _, part := range strings.Split(accept, ",") {
		token := strings.TrimSpace(strings.Split(part, ";")[0])
		if token == "" {
			continue
		}
		tag, err := language.Parse(token)
		if err != nil {
			continue
		}
		if region, conf := tag.Region(); conf == language.Exact {
			return region.String()
		}
	}
	return ""
}
