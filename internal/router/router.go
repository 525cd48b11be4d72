package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-roteiro-planner/internal/api/draft"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/geolocation"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/recommender"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/schedule"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/selection"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/session"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AllowedOrigins         []string
	AuthenticateMiddleware func(http.Handler) http.Handler
	SessionHandler         *session.HandlerImpl
	DraftHandler           *draft.HandlerImpl
	SelectionHandler       *selection.HandlerImpl
	RecommenderHandler     *recommender.HandlerImpl
	ScheduleHandler        *schedule.HandlerImpl
}

// SetupRouter builds the API router. Server-wide middleware (request id,
// logging, recoverer) is applied by the caller.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", geolocation.HeaderPosition, geolocation.HeaderStatus},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", cfg.SessionHandler.CreateSessionHandler)
		r.Get("/places", cfg.RecommenderHandler.ListPlacesHandler)

		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)

			r.Route("/draft", func(r chi.Router) {
				r.Get("/", cfg.DraftHandler.GetDraftHandler)
				r.Delete("/", cfg.DraftHandler.DiscardDraftHandler)
				r.Put("/title", cfg.DraftHandler.SetTitleHandler)
				r.Put("/date", cfg.DraftHandler.SetDateHandler)
				r.Post("/activities", cfg.DraftHandler.AddActivityHandler)
				r.Patch("/activities/{activityID}", cfg.DraftHandler.UpdateActivityHandler)
				r.Delete("/activities/{activityID}", cfg.DraftHandler.RemoveActivityHandler)
				r.Post("/activities/{activityID}/select", cfg.SelectionHandler.BeginSelectionHandler)
			})
			r.Post("/selection/complete", cfg.SelectionHandler.CompleteSelectionHandler)

			r.Get("/recommendations", cfg.RecommenderHandler.GetRecommendationsHandler)
			r.Get("/preferences", cfg.RecommenderHandler.GetPreferencesHandler)
			r.Put("/preferences", cfg.RecommenderHandler.SavePreferencesHandler)
			r.Post("/places/viewed", cfg.RecommenderHandler.ViewPlaceHandler)
			r.Get("/places/viewed", cfg.RecommenderHandler.GetViewedPlaceHandler)

			r.Post("/schedules", cfg.ScheduleHandler.SubmitHandler)
			r.Get("/schedules", cfg.ScheduleHandler.ListSchedulesHandler)
			r.Get("/schedules/{scheduleID}/directions", cfg.ScheduleHandler.DirectionsHandler)
		})
	})

	return r
}
