package identity

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
)

func segment(t *testing.T, v map[string]any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func TestDecodePayload(t *testing.T) {
	header := segment(t, map[string]any{"alg": "RS256", "kid": "k1"})
	payload := segment(t, map[string]any{"sub": "u-1", "email": "a@b.co"})
	token := header + "." + payload + ".sig"

	got, ok := DecodePayload(token)
	if !ok {
		t.Fatal("expected decode to succeed")
	}
	if got["sub"] != "u-1" || got["email"] != "a@b.co" {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestDecodePayloadRepairsPadding(t *testing.T) {
	// Payload length chosen so the raw segment is not a multiple of 4.
	payload := segment(t, map[string]any{"sub": "x"})
	payload = strings.TrimRight(payload, "=")
	token := "h." + payload + ".s"

	got, ok := DecodePayload(token)
	if !ok {
		t.Fatal("expected decode to succeed with repaired padding")
	}
	if got["sub"] != "x" {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	cases := []string{
		"",
		"only-one-segment",
		"a.b",                 // two segments
		"a.!!!not-base64!!.c", // invalid encoding
		"a." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".c",
	}
	for _, raw := range cases {
		if _, ok := DecodePayload(raw); ok {
			t.Errorf("DecodePayload(%q) succeeded, want failure", raw)
		}
	}
}

func TestPayloadStringFirstHitWins(t *testing.T) {
	p := map[string]any{"user_id": "u2", "uid": "u3", "n": 7}
	if got := PayloadString(p, "sub", "user_id", "uid"); got != "u2" {
		t.Fatalf("got %q, want u2", got)
	}
	if got := PayloadString(p, "n"); got != "" {
		t.Fatalf("non-string value should yield empty, got %q", got)
	}
	if got := PayloadString(p, "missing"); got != "" {
		t.Fatalf("missing key should yield empty, got %q", got)
	}
}
