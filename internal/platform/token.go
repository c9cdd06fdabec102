package platform

import (
	"strings"

	"xp-dashboard/internal/profile/domain"
)

// ExtractToken pulls the JWT out of a sign-in response body. The platform
// answers with a JSON string, while some proxies wrap it in an object or
// strip the JSON quoting. The chain is: trim, JSON string, object field
// (token, jwt, access_token), raw body without surrounding quotes. The result
// must have three dot-separated segments.
func ExtractToken(body []byte) (string, error) {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return "", domain.ErrNoToken
	}

	candidate := ""
	var asString string
	var asObject map[string]any
	switch {
	case json.Unmarshal([]byte(raw), &asString) == nil:
		candidate = asString
	case json.Unmarshal([]byte(raw), &asObject) == nil:
		for _, key := range []string{"token", "jwt", "access_token"} {
			if v, ok := asObject[key].(string); ok && v != "" {
				candidate = v
				break
			}
		}
	default:
		candidate = strings.Trim(raw, `"'`)
	}

	candidate = strings.Trim(strings.TrimSpace(candidate), `"'`)
	if !looksLikeJWT(candidate) {
		return "", domain.ErrNoToken
	}
	return candidate, nil
}

func looksLikeJWT(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\r\n") {
			return false
		}
	}
	return true
}
