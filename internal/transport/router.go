package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/briefkit/wizard/internal/config"
	"github.com/briefkit/wizard/internal/observability"
	"github.com/briefkit/wizard/internal/store"
	"github.com/briefkit/wizard/internal/wizard"
	"github.com/briefkit/wizard/model"
)

// Dependencies holds all injected dependencies for the HTTP transport layer.
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Authenticate func(http.Handler) http.Handler
	Catalog      model.Catalog
	Store        store.SessionStore
	Gate         *wizard.CompletionGate

	HealthHandler  http.HandlerFunc
	ReadyHandler   http.HandlerFunc
	MetricsHandler http.Handler
}

// NewRouter creates a chi.Router with the full middleware pipeline and all
// route registrations. Health, readiness, and metrics endpoints bypass the
// authentication middleware.
func NewRouter(deps Dependencies) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	// Global middleware: applied to all routes including health.
	r.Use(Recovery(logger))
	r.Use(CORS(deps.Config.Server.CORS))
	r.Use(RequestID)
	r.Use(SecurityHeaders)

	// Public routes bypass authentication.
	r.Get("/health", orDefault(deps.HealthHandler, observability.HandleHealth()))
	r.Get("/ready", orDefault(deps.ReadyHandler, observability.HandleHealth()))
	if deps.MetricsHandler != nil {
		r.Handle(deps.Config.Observability.Metrics.Path, deps.MetricsHandler)
	}

	// Authenticated routes get the full middleware chain.
	auth := deps.Authenticate
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Use(BuildRequestContext)
		r.Use(HandlerTimeout(deps.Config.Server.HandlerTimeout))
		r.Use(RequestLogging(logger))
		r.Use(MetricsRecording(deps.Metrics))

		r.Get("/wizard/catalog", handleCatalogGet(deps.Catalog))
		r.Post("/wizard/sessions", handleSessionCreate(deps))
		r.Get("/wizard/sessions/{sessionId}", handleSessionLoad(deps))
		r.Put("/wizard/sessions/{sessionId}/steps/{stepId}", handleStepUpsert(deps))
		r.Put("/wizard/sessions/{sessionId}/navigation", handleNavigationUpdate(deps))
		r.Post("/wizard/sessions/{sessionId}/complete", handleSessionComplete(deps))
	})

	return r
}

func orDefault(h http.HandlerFunc, fallback http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return fallback
}

// routePattern returns the chi route pattern for metrics labels, falling back
// to the raw path for unmatched requests.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
