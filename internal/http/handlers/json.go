package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vaweTech/authgate/internal/http/errors"
)

const maxJSONBody = 64 << 10 // 64KB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readJSONMap decodes a bounded JSON object body. Returns false after
// writing the error response when the body is unusable.
func readJSONMap(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	var body map[string]any
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&body); err != nil {
		errors.WriteError(w, errors.ErrInvalidJSON)
		return nil, false
	}
	if dec.More() {
		errors.WriteError(w, errors.ErrInvalidJSON.WithDetail("trailing data after JSON body"))
		return nil, false
	}
	return body, true
}
