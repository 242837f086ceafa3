// Package httptransport is the thin HTTP layer: it decodes requests,
// delegates to domain services, and encodes responses. No business
// logic lives here.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"craftgate/internal/platform/middleware"
)

// Registrar is implemented by every handler group.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter assembles the full route tree. Everything under the
// authenticated group requires a valid bearer token.
func NewRouter(
	logger *slog.Logger,
	validator middleware.JWTValidator,
	public []Registrar,
	authenticated []Registrar,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range public {
		h.Register(r)
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		for _, h := range authenticated {
			h.Register(r)
		}
	})
	return r
}
