package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/delivery/http/handler"
	"github.com/user/restaurant-kb-sync/internal/delivery/http/middleware"
)

// New wires routes and middleware. requestTimeout bounds every request
// except the scheduled batch.
func New(h *handler.Handler, logger *zap.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// The scheduled batch runs until every due restaurant is reported.
		r.Get("/cron/update-restaurants", h.HandleCronUpdate)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout))

			r.Get("/health", h.HandleHealthCheck)

			r.Post("/scrape-url", h.HandleScrapeURL)
			r.Get("/scrape-status", h.HandleScrapeStatus)

			r.Route("/restaurant/{slug}", func(r chi.Router) {
				r.Get("/dagens", h.HandleGetDaily)
				r.Get("/knowledge", h.HandleGetKnowledge)
				r.Post("/sync", h.HandleSyncRestaurant)
			})
		})
	})

	return r
}
