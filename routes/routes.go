package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/joegr/fcdreams/handlers"
	"github.com/joegr/fcdreams/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	tournamentHandler *handlers.TournamentHandler,
	teamHandler *handlers.TeamHandler,
	resultHandler *handlers.ResultHandler,
	matchHandler *handlers.MatchHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/tournaments", func(r chi.Router) {
		// Публичные маршруты просмотра
		r.Get("/", tournamentHandler.ListTournamentsHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetTournamentHandler)
		r.Get("/{tournamentID}/groups/{groupNum}/standings", tournamentHandler.GetStandingsHandler)
		r.Get("/{tournamentID}/bracket", tournamentHandler.GetBracketHandler)

		// Только организатор
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", tournamentHandler.CreateTournamentHandler)
			r.Post("/{tournamentID}/start-group-stage", tournamentHandler.StartGroupStageHandler)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}/players", teamHandler.ListRosterHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{teamID}/players", teamHandler.RegisterPlayerHandler)
			r.Delete("/{teamID}/players/{playerID}", teamHandler.RemovePlayerHandler)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.GetMatchHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{matchID}/result", resultHandler.SubmitResultHandler)
			r.Post("/{matchID}/confirm", resultHandler.ConfirmResultHandler)
			r.Post("/{matchID}/dispute", resultHandler.DisputeResultHandler)
			r.Post("/{matchID}/screenshot", resultHandler.UploadScreenshotHandler)

			// Админские операции над спорными матчами
			r.Post("/{matchID}/reopen", adminHandler.ReopenMatchHandler)
			r.Post("/{matchID}/force-confirm", adminHandler.ForceConfirmHandler)
		})
	})

	router.Route("/managers/me", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/pending-confirmations", matchHandler.ListPendingConfirmationsHandler)
		r.Get("/upcoming-matches", matchHandler.ListUpcomingMatchesHandler)
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
