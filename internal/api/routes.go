package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router: standard middleware, CORS for the
// dashboard frontend, a health check, and the /api surface.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/imports", func(r chi.Router) {
			r.Post("/", h.CreateImport)
			r.Get("/template", h.DownloadTemplate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetImport)
				r.Post("/file", h.UploadImportFile)
				r.Put("/mapping", h.SetImportMapping)
				r.Get("/preview", h.PreviewImport)
				r.Post("/commit", h.CommitImport)
				r.Post("/back", h.StepImportBack)
			})
		})

		r.Route("/affiliates", func(r chi.Router) {
			r.Get("/", h.ListAffiliates)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetAffiliate)
				r.Put("/status", h.UpdateAffiliateStatus)
				r.Put("/stage", h.UpdateAffiliateStage)
			})
		})
		r.Get("/stages", h.ListStages)

		r.Route("/fields", func(r chi.Router) {
			r.Get("/", h.ListFields)
			r.Post("/", h.CreateField)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", h.UpdateField)
				r.Delete("/", h.DeleteField)
				r.Post("/validate", h.ValidateFieldValue)
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Put("/read-all", h.MarkAllNotificationsRead)
			r.Put("/{id}/read", h.MarkNotificationRead)
		})

		r.Get("/audit", h.GetAuditLog)
		r.Get("/uploads/history", h.GetUploadHistory)
	})

	return r
}
