package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vaweTech/authgate/internal/config"
	"github.com/vaweTech/authgate/internal/identity"
	"github.com/vaweTech/authgate/internal/rate"
	"github.com/vaweTech/authgate/internal/roles"
	"github.com/vaweTech/authgate/internal/store/adapters/memory"
	"github.com/vaweTech/authgate/internal/store/core"
)

type stubVerifier struct {
	claims map[string]*identity.Claim
}

func (s *stubVerifier) Verify(ctx context.Context, raw string) (*identity.Claim, error) {
	if c, ok := s.claims[raw]; ok {
		return c, nil
	}
	return nil, identity.E(identity.KindInvalid, identity.CodeTokenInvalid, "test", errors.New("unknown token"))
}

type stubResolver struct {
	roles map[string]roles.Role
}

func (s *stubResolver) Resolve(ctx context.Context, uid, email string) (roles.Role, error) {
	if r, ok := s.roles[uid]; ok {
		return r, nil
	}
	return "", identity.E(identity.KindNotFound, identity.CodeUserNotFound, "test", errors.New("absent"))
}

func (s *stubResolver) ResolveSuperadmin(ctx context.Context, uid, email string) (roles.Role, error) {
	return s.Resolve(ctx, uid, email)
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Rate.Enabled = true
	cfg.Rate.MaxRequests = 100

	store := memory.New()
	store.Put(core.User{ID: "admin-uid", Email: "admin@x.com", Name: "Ada", Role: "admin", CreatedAt: time.Now()})

	deps := Deps{
		Config: cfg,
		Verifier: &stubVerifier{claims: map[string]*identity.Claim{
			"user-token":  {UID: "user-uid", Email: "user@x.com", Provenance: identity.ProvenanceVerified},
			"admin-token": {UID: "admin-uid", Email: "admin@x.com", Provenance: identity.ProvenanceVerified},
			"super-token": {UID: "super-uid", Email: "root@x.com", Provenance: identity.ProvenanceVerified},
		}},
		Resolver: &stubResolver{roles: map[string]roles.Role{
			"user-uid":  roles.RoleUser,
			"admin-uid": roles.RoleAdmin,
			"super-uid": roles.RoleSuperadmin,
		}},
		Store:    store,
		Limiter:  rate.NewMemoryLimiter(),
		Registry: prometheus.NewRegistry(),
	}

	srv := httptest.NewServer(New(deps))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestHealthEndpointsArePublic(t *testing.T) {
	srv := testServer(t)

	resp, body := get(t, srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])

	resp, body = get(t, srv.URL+"/readyz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMeRequiresAuth(t *testing.T) {
	srv := testServer(t)

	resp, _ := get(t, srv.URL+"/v1/me", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := get(t, srv.URL+"/v1/me", "user-token")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "user-uid", body["uid"])
	require.Equal(t, "verified", body["provenance"])
	require.Equal(t, false, body["low_assurance"])
}

func TestAdminGate(t *testing.T) {
	srv := testServer(t)

	resp, _ := get(t, srv.URL+"/v1/admin/ping", "user-token")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := get(t, srv.URL+"/v1/admin/ping", "admin-token")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "admin", body["role"])
}

func TestAdminGetUser(t *testing.T) {
	srv := testServer(t)

	resp, body := get(t, srv.URL+"/v1/admin/users/admin-uid", "admin-token")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "admin@x.com", body["email"])

	resp, body = get(t, srv.URL+"/v1/admin/users/ghost", "admin-token")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "USER_NOT_FOUND", body["code"])
}

func TestAnnouncementValidation(t *testing.T) {
	srv := testServer(t)

	post := func(payload string) (*http.Response, map[string]any) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/admin/announcements",
			strings.NewReader(payload))
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer admin-token")
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return resp, body
	}

	resp, body := post(`{"title":"t"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "MISSING_FIELDS", body["code"])
	require.Equal(t, "body", body["detail"])

	resp, body = post(`{"title":"Maintenance","body":"Sunday 02:00 UTC"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, body["id"])
}

func TestSuperadminGate(t *testing.T) {
	srv := testServer(t)

	resp, _ := get(t, srv.URL+"/v1/superadmin/config", "admin-token")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := get(t, srv.URL+"/v1/superadmin/config", "super-token")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, false, body["production"])
}

func TestRateLimitEnforced(t *testing.T) {
	// Dedicated server config with a tiny budget.
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Rate.Enabled = true
	cfg.Rate.MaxRequests = 2

	deps := Deps{
		Config: cfg,
		Verifier: &stubVerifier{claims: map[string]*identity.Claim{
			"user-token": {UID: "user-uid", Provenance: identity.ProvenanceVerified},
		}},
		Resolver: &stubResolver{},
		Store:    memory.New(),
		Limiter:  rate.NewMemoryLimiter(),
	}
	small := httptest.NewServer(New(deps))
	defer small.Close()

	var last *http.Response
	for i := 0; i < 3; i++ {
		last, _ = get(t, small.URL+"/v1/me", "user-token")
	}
	require.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	require.NotEmpty(t, last.Header.Get("Retry-After"))

	// Probes stay outside the limited subtree.
	resp, _ := get(t, small.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDOnEveryResponse(t *testing.T) {
	srv := testServer(t)
	resp, _ := get(t, srv.URL+"/healthz", "")
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
