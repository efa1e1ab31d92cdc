package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/julianstephens/unfilled/internal/blob"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics.Handler())
	}
	if fs, ok := s.deps.Blobs.(*blob.FSStore); ok {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(fs.Root()))))
	}
	r.Get("/g/{slug}", s.handleSharedGallery)

	r.Route("/api", func(r chi.Router) {
		r.Route("/export", func(r chi.Router) {
			r.Post("/day-image", s.handleDayImage)
			r.Get("/day-image", s.handleDayImageGet)
			r.Get("/month", s.handleMonthPDF)
		})

		r.Get("/presets", s.handlePresets)
		r.Get("/calendar/{year}/{monthIndex0}", s.handleCalendar)

		r.Get("/days", s.handleListDays)
		r.Get("/days/{dayId}", s.handleGetDay)
		r.Put("/days/{dayId}", s.handlePutDay)
		r.Delete("/days/{dayId}", s.handleDeleteDay)

		r.Get("/covers/{ym}", s.handleGetCover)
		r.Put("/covers/{ym}", s.handlePutCover)

		r.Route("/gallery", func(r chi.Router) {
			r.Get("/posts", s.handleListPosts)
			r.Post("/posts", s.handleCreatePost)
			r.Get("/posts/{id}", s.handleGetPost)
			r.Patch("/posts/{id}", s.handleUpdatePost)
			r.Delete("/posts/{id}", s.handleDeletePost)
			r.Get("/assets/{id}/raw", s.handleAssetRaw)
			r.Get("/share", s.handleGetShare)
			r.Put("/share/slug", s.handleUpdateSlug)
		})

		r.Get("/edits/{imageId}/{preset}", s.handleGetEdits)
		r.Put("/edits/{imageId}/{preset}", s.handlePutEdits)

		r.Get("/assign", s.handleListAssignments)
		r.Post("/assign", s.handleAssign)

		r.Post("/uploads", s.handleUpload)
		r.Post("/uploads/presign", s.handlePresign)

		r.Get("/debug/storage", s.handleStorageReport)
		r.Post("/debug/storage/clear", s.handleStorageClear)
	})
	return r
}
