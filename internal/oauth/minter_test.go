package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/vaweTech/authgate/internal/credentials"
)

func testCredential(t *testing.T) (*credentials.ServiceAccount, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return &credentials.ServiceAccount{
		ClientEmail: "svc@example.iam.gserviceaccount.com",
		PrivateKey:  string(keyPEM),
		ProjectID:   "proj-1",
	}, key
}

func TestMintExchangesSignedAssertion(t *testing.T) {
	sa, key := testCredential(t)

	var gotAssertion, gotGrant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotGrant = r.PostForm.Get("grant_type")
		gotAssertion = r.PostForm.Get("assertion")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "minted-token",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	m := NewMinter(credentials.Static{SA: sa}, "")
	m.TokenURL = srv.URL

	tok, ok := m.Mint(context.Background(), []string{"https://www.googleapis.com/auth/datastore"})
	if !ok {
		t.Fatal("mint failed")
	}
	if tok.Token != "minted-token" || tok.ProjectID != "proj-1" {
		t.Fatalf("unexpected token: %+v", tok)
	}
	if time.Until(tok.ExpiresAt) < 59*time.Minute {
		t.Fatalf("expiry too soon: %v", tok.ExpiresAt)
	}
	if gotGrant != "urn:ietf:params:oauth:grant-type:jwt-bearer" {
		t.Fatalf("grant_type = %q", gotGrant)
	}

	parsed, err := jwtv5.Parse(gotAssertion, func(*jwtv5.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwtv5.WithValidMethods([]string{"RS256"}))
	if err != nil || !parsed.Valid {
		t.Fatalf("assertion does not verify: %v", err)
	}
	claims := parsed.Claims.(jwtv5.MapClaims)
	if claims["iss"] != sa.ClientEmail || claims["sub"] != sa.ClientEmail {
		t.Fatalf("unexpected principal: %v", claims)
	}
	if claims["aud"] != srv.URL {
		t.Fatalf("aud = %v, want token URL", claims["aud"])
	}
	if claims["scope"] != "https://www.googleapis.com/auth/datastore" {
		t.Fatalf("scope = %v", claims["scope"])
	}
}

func TestMintProjectOverrideWins(t *testing.T) {
	sa, _ := testCredential(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "x", "expires_in": 60})
	}))
	defer srv.Close()

	m := NewMinter(credentials.Static{SA: sa}, "override-proj")
	m.TokenURL = srv.URL

	tok, ok := m.Mint(context.Background(), nil)
	if !ok || tok.ProjectID != "override-proj" {
		t.Fatalf("expected override project, got %+v", tok)
	}
}

func TestMintWithoutCredentialFailsQuietly(t *testing.T) {
	m := NewMinter(credentials.Static{}, "")
	if _, ok := m.Mint(context.Background(), nil); ok {
		t.Fatal("mint must fail without a credential")
	}
}

func TestMintExchangeRejection(t *testing.T) {
	sa, _ := testCredential(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	m := NewMinter(credentials.Static{SA: sa}, "")
	m.TokenURL = srv.URL
	if _, ok := m.Mint(context.Background(), nil); ok {
		t.Fatal("mint must fail on a rejected exchange")
	}
}

func TestMintBrokenKeyFailsQuietly(t *testing.T) {
	sa := &credentials.ServiceAccount{
		ClientEmail: "svc@example.com",
		PrivateKey:  "not a pem key",
	}
	m := NewMinter(credentials.Static{SA: sa}, "")
	if _, ok := m.Mint(context.Background(), nil); ok {
		t.Fatal("mint must fail with unparseable key material")
	}
}
