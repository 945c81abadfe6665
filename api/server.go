/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (slog)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for browser clients

ROUTE GROUPS:
  /api/contract         Contract metadata
  /api/roles/*          Role membership
  /api/pensioners/*     Pensioner records and role operations
  /api/me/*             Operations where the caller is the pensioner
  /api/audit            Audit trail
  /api/scenarios/*      Scenario runs (in-memory, never the live store)
  /metrics              Prometheus exposition (when metrics are enabled)
  /healthz              Liveness

SECURITY NOTE:
  Caller identity is taken from X-Caller-ID as asserted by the deployment
  (gateway or signer). The server does not verify signatures.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins are used when no origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins ...string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CallerHeader},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics.Handler())
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/contract", h.GetContract)

		// Role routes
		r.Route("/roles/{role}/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/", h.RegisterMember)
			r.Get("/{id}", h.GetMember)
			r.Delete("/{id}", h.UnregisterMember)
		})

		// Pensioner routes
		r.Route("/pensioners", func(r chi.Router) {
			r.Get("/", h.ListPensioners)
			r.Get("/{id}", h.GetPensioner)
			r.Put("/{id}/employment", h.UpdateEmployment)
			r.Get("/{id}/insurances", h.ListInsurances)
			r.Post("/{id}/insurances", h.AddInsurance)
			r.Get("/{id}/tax", h.GetTaxConfig)
			r.Put("/{id}/tax", h.ApplyTaxRate)
			r.Put("/{id}/eligibility", h.SetAgeEligibility)
			r.Post("/{id}/death", h.ReportDeath)
		})

		// Caller-as-pensioner routes
		r.Route("/me", func(r chi.Router) {
			r.Get("/payout", h.GetFuturePayout)
			r.Post("/payout", h.InitiatePayout)
			r.Put("/spouse", h.DesignateSpouse)
			r.Get("/spouse-benefit", h.GetSpouseBenefit)
		})

		r.Get("/audit", h.ListAudit)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/run", h.RunUploadedScenario)
			r.Get("/{id}", h.GetScenario)
			r.Post("/{id}/run", h.RunScenario)
		})
	})

	return r
}

// requestLogger logs one line per request at Info.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
