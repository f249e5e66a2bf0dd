package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/vykazy/internal/http/backup"
	"github.com/MrJamesThe3rd/vykazy/internal/http/debt"
	"github.com/MrJamesThe3rd/vykazy/internal/http/export"
	"github.com/MrJamesThe3rd/vykazy/internal/http/finance"
	"github.com/MrJamesThe3rd/vykazy/internal/http/importcsv"
	"github.com/MrJamesThe3rd/vykazy/internal/http/matching"
	"github.com/MrJamesThe3rd/vykazy/internal/http/settings"
	"github.com/MrJamesThe3rd/vykazy/internal/http/timer"
	"github.com/MrJamesThe3rd/vykazy/internal/http/worklog"
)

// Handlers groups the v1 API handlers.
type Handlers struct {
	WorkLog  *worklog.Handler
	Timer    *timer.Handler
	Finance  *finance.Handler
	Debts    *debt.Handler
	Import   *importcsv.Handler
	Matching *matching.Handler
	Export   *export.Handler
	Backup   *backup.Handler
	Settings *settings.Handler
}

func New(h Handlers, allowedOrigins []string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/work-sessions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.WorkLog.Routes(r)
		})

		r.Route("/timer", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Timer.Routes(r)
		})

		r.Route("/finance", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Finance.Routes(r)
		})

		r.Route("/debts", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Debts.Routes(r)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Settings.Routes(r)
		})

		r.Get("/deductions", h.Export.Deductions)

		r.Route("/import", h.Import.Routes)
		r.Route("/matching", h.Matching.Routes)
		r.Route("/export", h.Export.Routes)

		r.Route("/backup", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Backup.Routes(r)
		})
	})

	return router
}
