// Package httpserver exposes planning, timeline and capacity operations over HTTP.
package httpserver

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/vsinha/lineplan/pkg/interfaces/httpserver/handlers/capacity"
	"github.com/vsinha/lineplan/pkg/interfaces/httpserver/handlers/plans"
	"github.com/vsinha/lineplan/pkg/interfaces/httpserver/handlers/timeline"
)

// Services are the use cases the API serves
type Services struct {
	Planner   plans.Planner
	Generator plans.Generator
	Scheduler timeline.Scheduler
	Matcher   capacity.Matcher
}

// NewRouter builds the API router. allowedOrigins feeds CORS for the browser UI.
func NewRouter(log *slog.Logger, allowedOrigins []string, svc Services) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Post("/api/plans", plans.Plan(log, svc.Planner, svc.Generator))
	router.Get("/api/plans/export.xlsx", plans.Export(log, svc.Planner))

	router.Get("/api/timeline", timeline.List(log, svc.Scheduler))
	router.Get("/api/timeline/gantt.svg", timeline.Gantt(log, svc.Scheduler))
	router.Post("/api/timeline/place", timeline.Place(log, svc.Scheduler))
	router.Delete("/api/timeline/items/{id}", timeline.Undo(log, svc.Scheduler))

	router.Post("/api/capacity/match", capacity.Match(log, svc.Matcher))

	return router
}
