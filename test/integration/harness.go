// Package integration provides a reusable test harness for end-to-end
// testing of the wizard session server. It starts a full HTTP server with
// the in-memory session store and the complete middleware chain.
package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/briefkit/wizard/internal/catalog"
	"github.com/briefkit/wizard/internal/config"
	"github.com/briefkit/wizard/internal/observability"
	"github.com/briefkit/wizard/internal/store"
	"github.com/briefkit/wizard/internal/transport"
	"github.com/briefkit/wizard/internal/wizard"
	"github.com/briefkit/wizard/model"
)

// TestHarness encapsulates a fully wired wizard server instance.
type TestHarness struct {
	t      *testing.T
	server *httptest.Server

	// Internal components exposed for advanced test scenarios.
	Store   *store.MemoryStore
	Catalog model.Catalog
	Gate    *wizard.CompletionGate
}

// HarnessOption configures the test harness.
type HarnessOption func(*harnessConfig)

type harnessConfig struct {
	catalog        *model.Catalog
	handlerTimeout time.Duration
	authenticate   func(http.Handler) http.Handler
}

// WithCatalog replaces the built-in step catalog.
func WithCatalog(cat model.Catalog) HarnessOption {
	return func(c *harnessConfig) {
		c.catalog = &cat
	}
}

// WithHandlerTimeout sets the per-request handler timeout.
func WithHandlerTimeout(d time.Duration) HarnessOption {
	return func(c *harnessConfig) {
		c.handlerTimeout = d
	}
}

// WithAuthenticate injects an authentication middleware, the same seam the
// production wiring uses.
func WithAuthenticate(mw func(http.Handler) http.Handler) HarnessOption {
	return func(c *harnessConfig) {
		c.authenticate = mw
	}
}

// NewTestHarness creates and starts a wizard server instance. The server is
// automatically cleaned up when the test completes.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		handlerTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(hc)
	}

	cat := catalog.Default()
	if hc.catalog != nil {
		cat = *hc.catalog
	}
	if verrs := catalog.NewValidator().Validate(cat); len(verrs) > 0 {
		t.Fatalf("harness catalog invalid: %v", verrs)
	}

	st := store.NewMemoryStore()
	gate := wizard.NewCompletionGate(st, nil)

	cfg := config.Defaults()
	cfg.Server.HandlerTimeout = hc.handlerTimeout
	cfg.Server.CORS.AllowedOrigins = []string{"http://localhost:3000"}

	router := transport.NewRouter(transport.Dependencies{
		Config:       cfg,
		Logger:       zap.NewNop(),
		Authenticate: hc.authenticate,
		Catalog:      cat,
		Store:        st,
		Gate:         gate,
		HealthHandler: observability.HandleHealth(),
		ReadyHandler: observability.HandleReady(observability.ReadinessChecks{
			CatalogLoaded: func() bool { return cat.Len() > 0 },
			SessionStore:  st,
		}),
	})

	h := &TestHarness{
		t:       t,
		Store:   st,
		Catalog: cat,
		Gate:    gate,
	}
	h.server = httptest.NewServer(router)
	t.Cleanup(h.server.Close)

	return h
}

// BaseURL returns the test server's base URL.
func (h *TestHarness) BaseURL() string {
	return h.server.URL
}

// --- HTTP client helpers ---

// GET performs a GET request.
func (h *TestHarness) GET(path string) *http.Response {
	h.t.Helper()
	return h.doRequest("GET", path, nil, nil)
}

// POST performs a POST request with a JSON body.
func (h *TestHarness) POST(path string, body any) *http.Response {
	h.t.Helper()
	return h.doRequest("POST", path, body, nil)
}

// PUT performs a PUT request with a JSON body.
func (h *TestHarness) PUT(path string, body any) *http.Response {
	h.t.Helper()
	return h.doRequest("PUT", path, body, nil)
}

func (h *TestHarness) doRequest(method, path string, body any, headers map[string]string) *http.Response {
	h.t.Helper()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			h.t.Fatalf("marshal request body: %v", err)
		}
		bodyReader = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(context.Background(), method, h.server.URL+path, bodyReader)
	if err != nil {
		h.t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		h.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

// ParseJSON reads the response body and unmarshals it into the target.
func (h *TestHarness) ParseJSON(resp *http.Response, target any) {
	h.t.Helper()
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		h.t.Fatalf("read response body: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		h.t.Fatalf("unmarshal response body: %v\nbody: %s", err, string(data))
	}
}

// AssertStatus checks that the response has the expected status code.
func (h *TestHarness) AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
}

// AssertJSON checks that the response has the expected status and parses the body.
func (h *TestHarness) AssertJSON(t *testing.T, resp *http.Response, expected int, target any) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d\nbody: %s", resp.StatusCode, expected, string(body))
	}
	h.ParseJSON(resp, target)
}

// CreateSession creates a session through the API and returns its ID.
func (h *TestHarness) CreateSession(t *testing.T, projectName string) string {
	t.Helper()
	resp := h.POST("/wizard/sessions", map[string]any{
		"project_name": projectName,
		"client_name":  "Integration Client",
	})
	var session model.Session
	h.AssertJSON(t, resp, http.StatusCreated, &session)
	if session.ID == "" {
		t.Fatal("expected non-empty session id")
	}
	return session.ID
}
