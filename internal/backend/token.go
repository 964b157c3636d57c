// Copyright (c) 2025 Parent Portal
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"net/http"
	"strconv"
	"strings"
)

// parseBearerToken extracts token from a value like "Bearer <token>" case-insensitively.
// Returns the token string without the "Bearer " prefix, or empty string if invalid format.
func parseBearerToken(value string) string {
	v := strings.TrimSpace(value)
	if len(v) < 7 || !strings.EqualFold(v[:6], "bearer") || v[6] != ' ' {
		return ""
	}
	return strings.TrimSpace(v[7:])
}

// findBearerTokenInHeaders returns a token the backend handed out in the
// Authorization or X-Auth-Token response header, if any.
func findBearerTokenInHeaders(h http.Header) string {
	if t := parseBearerToken(h.Get("Authorization")); t != "" {
		return t
	}
	return strings.TrimSpace(h.Get("X-Auth-Token"))
}

// extractToken extracts the session token from a login response payload.
// It tries the field names the portal backends have used over time.
func extractToken(result map[string]any) string {
	for _, k := range []string{"token", "access_token", "accessToken", "jwt"} {
		if v, ok := result[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if data, ok := result["data"].(map[string]any); ok {
		return extractToken(data)
	}
	return ""
}

// decodeProfile extracts a UserProfile from either {"user": {...}}, {"data": {...}}
// or a bare profile object.
func decodeProfile(result map[string]any) UserProfile {
	for _, k := range []string{"user", "profile", "data"} {
		if nested, ok := result[k].(map[string]any); ok {
			if p := decodeProfile(nested); p.ID != "" || p.Email != "" {
				return p
			}
		}
	}

	var p UserProfile
	p.ID = firstString(result, "id", "user_id", "userId", "_id")
	p.Email = firstString(result, "email")
	p.Name = firstString(result, "name", "full_name", "fullName", "display_name")
	if roles, ok := result["roles"].([]any); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok && s != "" {
				p.Roles = append(p.Roles, s)
			}
		}
	} else if role := firstString(result, "role"); role != "" {
		p.Roles = []string{role}
	}
	return p
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			// numeric ids from older backends
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
