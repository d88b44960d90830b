package auth

import (
	"net/http"
	"strings"
)

// ExtractBearerToken reads the raw token out of an incoming request's
// Authorization header. It recognizes only the "Bearer <token>" scheme;
// any other scheme (e.g. Basic) or a missing header returns ok=false
// — an "Authorization: Basic ABC" header must not be treated as a
// bearer token.
func ExtractBearerToken(h http.Header) (string, bool) {
	value := h.Get("Authorization")
	if value == "" {
		return "", false
	}

	const prefix = "Bearer "
	if len(value) <= len(prefix) || !strings.EqualFold(value[:len(prefix)], prefix) {
		return "", false
	}

	token := strings.TrimSpace(value[len(prefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
