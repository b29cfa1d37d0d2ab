// Package router configures the followcast HTTP API.
//
// Routes configured:
//   - GET    /entries                 - List samples, paginated with ?page=&limit=
//   - POST   /entries                 - Record a sample
//   - DELETE /entries                 - Remove every sample
//   - PUT    /entries/{date}          - Change a sample's count and optionally its date
//   - DELETE /entries/{date}          - Remove one sample
//   - GET    /alerts                  - Trend alert
//   - GET    /follower-alerts         - Detailed trend classification
//   - GET    /insights                - Next milestone and time to reach it
//   - GET    /forecast?days=N         - Linear forecast of the next N days
//   - GET    /download                - CSV export
//   - POST   /upload                  - CSV import
//   - GET    /changelog               - Release notes
//   - GET    /healthz                 - Datastore health check
//   - GET    /metrics                 - Prometheus metrics
//
// API routes are rate limited per client IP; /healthz and /metrics are not.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/followcast/pkg/changelog"
	"github.com/HatiCode/followcast/pkg/httpx"
	"github.com/HatiCode/followcast/pkg/tracker"
)

// Options holds the HTTP policy knobs.
type Options struct {
	// CORSOrigins lists the allowed browser origins.
	CORSOrigins []string

	// RateLimit is the number of API requests allowed per client IP per
	// minute. 0 disables rate limiting.
	RateLimit int
}

// SetupRoutes configures HTTP endpoints for the followcast server.
func SetupRoutes(svc *tracker.Service, notes []changelog.Entry, opts Options, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if notes == nil {
		notes = []changelog.Entry{}
	}
	h := &handlers{svc: svc, notes: notes, logger: logger}

	r := chi.NewRouter()
	r.Use(httpx.RecoveryMiddleware(logger))
	r.Use(httpx.LoggingMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Handle("/healthz", httpx.HealthHandlerWithCheck(svc.Ping))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimit, time.Minute))
		}

		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.listEntries)
			r.Post("/", h.addEntry)
			r.Delete("/", h.clearEntries)
			r.Put("/{date}", h.updateEntry)
			r.Delete("/{date}", h.deleteEntry)
		})

		r.Get("/alerts", h.alert)
		r.Get("/follower-alerts", h.detailedAlert)
		r.Get("/insights", h.insight)
		r.Get("/forecast", h.forecast)
		r.Get("/download", h.download)
		r.Post("/upload", h.upload)
		r.Get("/changelog", h.changelog)
	})

	return r
}
