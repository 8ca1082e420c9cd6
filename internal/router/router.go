package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askchopper-dev/askchopper/internal/handler"
	"github.com/askchopper-dev/askchopper/internal/middleware/metrics"
)

// New assembles the HTTP surface: chat API, probes, Prometheus metrics
// and static serving for uploaded files.
func New(h *handler.Handler, uploadsRoot string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Get("/chat/history", h.History)
		r.Get("/chat/{message}", h.GetMessage)
		r.Delete("/chat/{message}", h.DeleteMessage)
	})

	// Uploaded files and thumbnails are public by URL; names are random
	// UUIDs so they are not guessable.
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsRoot)))
	r.Get("/uploads/*", func(w http.ResponseWriter, req *http.Request) {
		fileServer.ServeHTTP(w, req)
	})

	return r
}
