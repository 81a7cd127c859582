package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func selfSignedCertPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func TestCertSourceFetchAndCache(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	certPEM := selfSignedCertPEM(t, key)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"kid-1": certPEM})
	}))
	defer srv.Close()

	s := NewCertSource(srv.URL)

	got, err := s.PublicKey(context.Background(), "kid-1")
	if err != nil {
		t.Fatalf("public key: %v", err)
	}
	if got.N.Cmp(key.PublicKey.N) != 0 {
		t.Fatal("returned key does not match certificate")
	}

	// Second query must come from cache.
	if _, err := s.PublicKey(context.Background(), "kid-1"); err != nil {
		t.Fatalf("cached public key: %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("endpoint hits = %d, want 1", n)
	}
}

func TestCertSourceUnknownKid(t *testing.T) {
	key, _ := rsa.GenerateKey(rand.Reader, 2048)
	certPEM := selfSignedCertPEM(t, key)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"kid-1": certPEM})
	}))
	defer srv.Close()

	s := NewCertSource(srv.URL)
	_, err := s.PublicKey(context.Background(), "kid-other")
	if !IsKind(err, KindInvalid) {
		t.Fatalf("kind = %v, want invalid", KindOf(err))
	}
}

func TestCertSourceBrokenMaterialIsDecoderKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"kid-1": "not a certificate"})
	}))
	defer srv.Close()

	s := NewCertSource(srv.URL)
	_, err := s.PublicKey(context.Background(), "kid-1")
	if !IsKind(err, KindDecoder) {
		t.Fatalf("kind = %v, want decoder", KindOf(err))
	}
}

func TestCertSourceUnreachableIsNetworkKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	s := NewCertSource(srv.URL)
	_, err := s.PublicKey(context.Background(), "kid-1")
	if !IsKind(err, KindNetwork) {
		t.Fatalf("kind = %v, want network", KindOf(err))
	}
}
