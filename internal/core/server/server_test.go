package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/helioscrm/dynlogic/internal/core/api"
	"github.com/helioscrm/dynlogic/internal/core/config"
	"github.com/helioscrm/dynlogic/internal/core/metrics"
	"github.com/helioscrm/dynlogic/internal/logic"
	"github.com/helioscrm/dynlogic/internal/types"
)

func newTestServer(t *testing.T, authMW Middleware) (*Server, *logic.Resolver) {
	t.Helper()
	cfg := config.DefaultConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := logic.NewResolver(logic.Hooks{})
	m := metrics.New("dynlogic_test")
	svc := api.NewService(resolver, nil, m, logger, cfg.ValidationPolicy)
	return New(cfg, logger, svc, resolver, m, authMW), resolver
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	s, resolver := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 before rule sets load", rec.Code)
	}

	resolver.SetRuleSet("Account", &types.RuleSet{})
	rec = httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 once rule sets load", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("metrics output missing runtime collectors")
	}
}

func TestAPIRoutesBehindAuth(t *testing.T) {
	denied := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	s, _ := newTestServer(t, denied)

	// API routes pass through the middleware.
	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(`{"entityType": "Account"}`))
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("API status = %d, want 401 behind denying middleware", rec.Code)
	}

	// Operational endpoints do not.
	rec = httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200 without credentials", rec.Code)
	}
}

func TestResolveThroughServer(t *testing.T) {
	s, resolver := newTestServer(t, nil)
	var rs types.RuleSet
	if err := json.Unmarshal([]byte(`{
		"fields": {"partnerLevel": {"visible": {"type": "equals", "attribute": "type", "value": "Partner"}}}
	}`), &rs); err != nil {
		t.Fatal(err)
	}
	resolver.SetRuleSet("Account", &rs)

	body := `{"entityType": "Account", "record": {"type": "Partner"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/resolve", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var state types.ResolvedState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if !state.FieldState("partnerLevel").Visible {
		t.Errorf("partnerLevel visible = false, want true")
	}
}
