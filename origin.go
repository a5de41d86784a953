package main

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

var (
	allowedOrigins  map[string]struct{}
	allowAllOrigins bool
)

// setAllowedOrigins parses a comma-separated allow-list. Empty or "*" allows
// every origin.
func setAllowedOrigins(origins string) {
	allowedOrigins = make(map[string]struct{})
	allowAllOrigins = false

	trimmed := strings.TrimSpace(origins)
	if trimmed == "" || trimmed == "*" {
		allowAllOrigins = true
		return
	}

	for _, origin := range strings.Split(trimmed, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAllOrigins = true
			continue
		}
		normalized, ok := normalizeOrigin(origin)
		if !ok {
			slog.Warn("ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		allowedOrigins[normalized] = struct{}{}
	}
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func checkOrigin(r *http.Request) bool {
	if allowAllOrigins {
		return true
	}

	normalized, ok := normalizeOrigin(r.Header.Get("Origin"))
	if !ok {
		return false
	}
	if _, exists := allowedOrigins[normalized]; exists {
		return true
	}

	slog.Warn("blocked websocket connection from disallowed origin", "origin", r.Header.Get("Origin"))
	return false
}
