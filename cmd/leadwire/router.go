package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/phrazzld/leadwire-api/internal/api"
	apiMiddleware "github.com/phrazzld/leadwire-api/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.Metrics)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenValidator)
	articleHandler := api.NewArticleHandler(app.ingestionService, app.preferenceService, app.logger)
	feedHandler := api.NewFeedHandler(app.feedService, app.logger)
	preferenceHandler := api.NewPreferenceHandler(app.preferenceService, app.logger)

	r.Route("/api", func(r chi.Router) {
		if limit := app.config.Server.RateLimitPerMinute; limit > 0 {
			r.Use(httprate.LimitByIP(limit, time.Minute))
		}
		r.Use(authMiddleware.Authenticate)

		r.Post("/articles/batch", articleHandler.IngestBatch)
		r.Post("/articles/{id}/decision", articleHandler.RecordDecision)

		r.Get("/feed", feedHandler.GetFeed)

		r.Route("/preferences", func(r chi.Router) {
			r.Get("/", preferenceHandler.List)
			r.Post("/adjust", preferenceHandler.Adjust)
			r.Put("/weight", preferenceHandler.SetWeight)
			r.Post("/mute", preferenceHandler.Mute)
			r.Post("/reset", preferenceHandler.Reset)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
