// Package http exposes the portal's REST and websocket API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"healthcare-portal-service/internal/app"
	"healthcare-portal-service/internal/observability/metrics"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	h := &handlers{app: application}
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(observe(metrics.DefaultMetrics))

	// Health endpoints
	r.Get("/v1/liveness", h.liveness)
	r.Get("/v1/readiness", h.readiness)

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(application.Sessions.Middleware)

		r.Get("/preferences", h.getPreferences)
		r.Put("/preferences", h.putPreferences)
		r.Post("/session/logout", h.logout)

		r.Get("/i18n", h.i18nTable)
		r.Get("/i18n/languages", h.i18nLanguages)
		r.Get("/i18n/{key}", h.i18nLookup)

		r.Post("/translate", h.translate)
		r.Post("/transcribe", h.transcribe)

		r.Post("/meetings/adhoc", h.adHocMeeting)
		r.Get("/meetings/{appointmentID}", h.describeMeeting)
		r.Get("/meetings/{appointmentID}/transcripts", h.meetingTranscripts)
		r.Get("/conference/{room}/audio", h.conference)

		r.Route("/records", func(r chi.Router) {
			r.Get("/doctors", h.doctors)
			r.Get("/doctors/{id}", h.doctor)
			r.Get("/prescriptions", h.prescriptions)
			r.Get("/reports", h.reports)
			r.Get("/vitals", h.vitals)
		})
	})

	return r
}
