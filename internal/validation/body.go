// Package validation holds thin request-body schema checks used by the
// handlers. Intentionally minimal: a missing-fields report, not a schema
// language.
package validation

// MissingStrings returns the keys that are absent from body or present
// but not a non-empty string, in the order given.
func MissingStrings(body map[string]any, keys ...string) []string {
	var missing []string
	for _, k := range keys {
		v, ok := body[k]
		if !ok {
			missing = append(missing, k)
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			missing = append(missing, k)
		}
	}
	return missing
}
