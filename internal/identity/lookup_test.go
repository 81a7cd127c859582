package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookupClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:lookup" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "api-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if req["idToken"] != "raw-token" {
			t.Errorf("idToken = %q", req["idToken"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{{
				"localId":          "user-9",
				"email":            "u@example.com",
				"customAttributes": `{"role":"admin"}`,
			}},
		})
	}))
	defer srv.Close()

	c := NewLookupClient(srv.URL, "api-key")
	claim, err := c.Lookup(context.Background(), "raw-token")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if claim.UID != "user-9" || claim.Email != "u@example.com" || claim.Role != "admin" {
		t.Fatalf("unexpected claim: %+v", claim)
	}
	if claim.Provenance != ProvenanceLookup {
		t.Fatalf("provenance = %q", claim.Provenance)
	}
}

func TestLookupClientDisabledAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users": []map[string]any{{"localId": "user-9", "disabled": true}},
		})
	}))
	defer srv.Close()

	c := NewLookupClient(srv.URL, "k")
	_, err := c.Lookup(context.Background(), "raw-token")
	if !IsKind(err, KindDisabled) {
		t.Fatalf("kind = %v, want disabled", KindOf(err))
	}
	if CodeOf(err) != CodeUserDisabled {
		t.Fatalf("code = %q", CodeOf(err))
	}
}

func TestLookupClientNoUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"users": []any{}})
	}))
	defer srv.Close()

	c := NewLookupClient(srv.URL, "k")
	_, err := c.Lookup(context.Background(), "raw-token")
	if !IsKind(err, KindNotFound) {
		t.Fatalf("kind = %v, want not_found", KindOf(err))
	}
}

func TestLookupClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"INVALID_ID_TOKEN"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewLookupClient(srv.URL, "k")
	_, err := c.Lookup(context.Background(), "raw-token")
	if !IsKind(err, KindInvalid) {
		t.Fatalf("kind = %v, want invalid", KindOf(err))
	}
}
