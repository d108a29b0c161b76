package api

import (
	"net/http"
	"strings"
)

const sessionCookieName = "session_token"

// bearerToken extracts the session token from the Authorization header,
// falling back to the session cookie set by the web frontend. Returns ""
// when no credential is present; whether that is fatal depends on the
// endpoint.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
		// A malformed Authorization header is treated as no credential,
		// matching how an unknown token behaves.
		return ""
	}

	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
