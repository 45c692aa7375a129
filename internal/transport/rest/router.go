package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/baechuer/real-time-ressys/services/participation-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/security"
	"github.com/baechuer/real-time-ressys/services/participation-service/internal/transport/rest/response"
)

type RouterDeps struct {
	Handler  *Handler
	Health   *HealthHandler
	Verifier security.AccessTokenVerifier

	RateLimitEnabled bool
	RateLimit        int
	RateWindow       time.Duration
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Handler == nil {
		panic("rest.NewRouter: nil handler")
	}
	if d.Verifier == nil {
		panic("rest.NewRouter: nil verifier")
	}
	if d.Health == nil {
		d.Health = NewHealthHandler(nil)
	}

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(HTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, r, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	r.Get("/healthz", d.Health.Healthz)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if d.RateLimitEnabled && d.RateLimit > 0 {
			r.Use(httprate.Limit(
				d.RateLimit,
				d.RateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					response.Fail(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				}),
			))
		}

		r.Get("/events", d.Handler.ListPublic)
		r.Get("/events/{eventID}", d.Handler.GetPublic)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Verifier))

			r.Post("/events", d.Handler.Create)

			r.Route("/me", func(r chi.Router) {
				r.Get("/events", d.Handler.ListMine)
				r.Get("/events/{eventID}", d.Handler.GetMine)
				r.Patch("/events/{eventID}", d.Handler.UpdateMine)
				r.Get("/events/{eventID}/requests", d.Handler.EventRequests)
				r.Patch("/events/{eventID}/requests", d.Handler.Moderate)

				r.Post("/requests", d.Handler.CreateRequest)
				r.Get("/requests", d.Handler.MyRequests)
				r.Patch("/requests/{requestID}/cancel", d.Handler.CancelRequest)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin)
				r.Get("/events", d.Handler.AdminList)
				r.Patch("/events/{eventID}", d.Handler.AdminUpdate)
				r.Post("/events/{eventID}/transitions", d.Handler.AdminTransition)
			})
		})
	})

	return r
}
