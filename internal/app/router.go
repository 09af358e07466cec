package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-erp/meridian-erp/internal/authz"
	"github.com/meridian-erp/meridian-erp/internal/events"
	"github.com/meridian-erp/meridian-erp/internal/identity"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/overrides"
	"github.com/meridian-erp/meridian-erp/internal/permissions"
	"github.com/meridian-erp/meridian-erp/internal/roles"
	"github.com/meridian-erp/meridian-erp/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Identity           identity.Middleware
	AuthzHandler       *authz.Handler
	PermissionsHandler *permissions.Handler
	RolesHandler       *roles.Handler
	OverridesHandler   *overrides.Handler
	UsersHandler       *users.Handler
	StreamHandler      *events.StreamHandler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	timeout := 30 * time.Second
	if params.Config != nil && params.Config.AppRequestTimeout > 0 {
		timeout = params.Config.AppRequestTimeout
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(params.Identity.Authenticate)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(timeout))
			params.AuthzHandler.MountRoutes(r)
			params.PermissionsHandler.MountRoutes(r)
			params.RolesHandler.MountRoutes(r)
			params.OverridesHandler.MountRoutes(r)
			params.UsersHandler.MountRoutes(r)
		})

		// Long-lived invalidation feed; no request timeout.
		r.Method(http.MethodGet, "/stream", params.StreamHandler)
	})

	return r
}
