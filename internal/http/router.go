// Package http assembles the route tree. Handlers stay thin; this file only
// decides which middleware guards which group.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seva/internal/platform/metrics"
	"seva/internal/platform/middleware"
	"seva/pkg/platform/httputil"
)

// Registrar mounts a feature's routes on a router group.
type Registrar interface {
	Register(r chi.Router)
}

// Handlers collects every feature handler the router mounts. VerifyRegistrar
// and AdminRegistrar are split out because those routes live outside the
// regular authenticated group.
type Handlers struct {
	Auth        Registrar
	Profile     Registrar
	Scheme      Registrar
	Document    Registrar
	Application Registrar
	Assistant   Registrar

	VerifyRegistrar interface{ RegisterVerify(r chi.Router) }
	AdminRegistrar  interface{ RegisterAdmin(r chi.Router) }
}

// NewRouter builds the full route tree:
//
//	public: register, login, stateless verify, health, metrics
//	authed: profile, schemes, documents, applications, assistant
//	admin:  application review
func NewRouter(h Handlers, validator middleware.TokenValidator, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	h.Auth.Register(r)
	h.VerifyRegistrar.RegisterVerify(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))

		h.Profile.Register(r)
		h.Scheme.Register(r)
		h.Document.Register(r)
		h.Application.Register(r)
		h.Assistant.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logger))
			h.AdminRegistrar.RegisterAdmin(r)
		})
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
