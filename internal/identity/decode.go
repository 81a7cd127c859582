package identity

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// DecodePayload structurally decodes the payload segment of a bearer token.
// No signature check is performed: the result is NOT a trust assertion by
// itself. Returns false when the token has fewer than two segments or the
// payload is not valid base64url JSON. Pure function, never panics.
func DecodePayload(raw string) (map[string]any, bool) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return nil, false
	}

	seg := parts[1]
	// Repair stripped padding.
	if m := len(seg) % 4; m != 0 {
		seg += strings.Repeat("=", 4-m)
	}

	data, err := base64.URLEncoding.DecodeString(seg)
	if err != nil {
		return nil, false
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	return payload, true
}

// PayloadString extracts a string claim from a decoded payload.
func PayloadString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
