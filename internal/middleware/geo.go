package middleware

import (
	"context"
	"net/http"
	"strings"
)

const geoKey contextKey = "geo_country"

// UnknownGeo is used when no CDN country header is present.
const UnknownGeo = "unknown"

// geoHeaders are checked in order; the first non-empty value wins.
var geoHeaders = []string{
	"CF-IPCountry",
	"X-Vercel-IP-Country",
	"CloudFront-Viewer-Country",
	"Fastly-Geo-Country",
	"X-Country-Code",
}

// Geo records the client's country code, as reported by an upstream CDN,
// in the request context.
func Geo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := countryFromHeaders(r.Header)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), geoKey, code)))
	})
}

// GetCountryCode returns the country code stored by Geo, or UnknownGeo.
func GetCountryCode(ctx context.Context) string {
	if code, ok := ctx.Value(geoKey).(string); ok && code != "" {
		return code
	}
	return UnknownGeo
}

func countryFromHeaders(h http.Header) string {
	for _, name := range geoHeaders {
		v := strings.TrimSpace(h.Get(name))
		// Cloudflare sends XX when the country is unknown.
		if v == "" || v == "XX" {
			continue
		}
		return strings.ToUpper(v)
	}
	return UnknownGeo
}
