package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/news-service/internal/delivery/http/handler"
	"github.com/user/news-service/internal/delivery/http/middleware"
	"github.com/user/news-service/pkg/metrics"
	"go.uber.org/zap"
)

// New builds the API router.
func New(h *handler.Handler, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/news", h.HandleListNews)
		r.Post("/news/crawl", h.HandleTriggerCrawl)
		r.Get("/news/{id}", h.HandleGetNews)
		r.Get("/news/{id}/template", h.HandleGetTemplate)
		r.Get("/categories", h.HandleGetCategories)
		r.Get("/status", h.HandleGetStatus)
	})

	return r
}
