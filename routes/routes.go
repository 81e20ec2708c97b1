package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Dosada05/league-rating-system/handlers"
	"github.com/Dosada05/league-rating-system/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	leagueHandler *handlers.LeagueHandler,
	matchHandler *handlers.MatchHandler,
	notificationHandler *handlers.NotificationHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/leagues", func(r chi.Router) {
		r.Get("/", leagueHandler.List)
		r.Get("/{leagueID}", leagueHandler.Get)
		r.Get("/{leagueID}/rosters", leagueHandler.Rosters)
		r.Get("/{leagueID}/standings", leagueHandler.Standings)
		r.Get("/{leagueID}/matches", matchHandler.ListByLeague)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", leagueHandler.Create)
			r.Post("/{leagueID}/join", leagueHandler.Join)
			r.Post("/{leagueID}/consolidate", leagueHandler.Consolidate)
			r.Post("/{leagueID}/standings/export", leagueHandler.ExportStandings)
			r.Post("/{leagueID}/matches", matchHandler.Submit)
			r.Post("/{leagueID}/matches/preview", matchHandler.Preview)
		})
	})

	router.Get("/rosters/{rosterID}/history", leagueHandler.RosterHistory)

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/{matchID}/accept", matchHandler.Accept)
			r.Post("/{matchID}/reject", matchHandler.Reject)
			r.Put("/{matchID}", matchHandler.Update)
		})
	})

	router.Route("/notifications", func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/", notificationHandler.List)
		r.Put("/{notificationID}/read", notificationHandler.MarkRead)
	})

	router.Get("/ws/leagues/{leagueID}", webSocketHandler.ServeWs)
}
