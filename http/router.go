package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the API routes. Writes and schedule computations go
// through the rate limiter; reads do not.
func NewRouter(
	loans *LoanHandler,
	comparisons *ComparisonHandler,
	limiter *RateLimiter,
	allowedOrigins []string,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	limited := RateLimitMiddleware(limiter)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/loans", func(r chi.Router) {
			r.Get("/", loans.ListLoans)
			r.With(limited).Post("/", loans.CreateLoan)
			r.Get("/{id}", loans.GetLoan)
			r.With(limited).Delete("/{id}", loans.DeleteLoan)
			r.Get("/{id}/schedule.csv", loans.ExportScheduleCSV)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Use(limited)
			r.Post("/preview", loans.PreviewSchedule)
			r.Post("/compare", comparisons.CompareTenures)
		})
	})

	return r
}
