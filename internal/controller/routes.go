package controller

import (
	"github.com/benbeisheim/kingchess-backend/internal/middleware"
	"github.com/benbeisheim/kingchess-backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SetupRoutes mounts the REST API under /api and the websockets under /ws.
func SetupRoutes(app *fiber.App, gameService *service.GameService, allowedOrigins []string) {
	gameController := NewGameController(gameService)
	wsController := NewWebSocketController(gameService)

	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         allowedOrigins,
	}
	wsRoutes := app.Group("/ws", middleware.EnsurePlayerID())
	wsRoutes.Get("/game/:gameId", middleware.WebSocketUpgrade(), websocket.New(wsController.HandleConnection, wsConfig))
	wsRoutes.Get("/matchmaking", middleware.WebSocketUpgrade(), websocket.New(wsController.HandleMatchmaking, wsConfig))

	api := app.Group("/api", middleware.EnsurePlayerID())

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gameController.JoinMatchmaking)
	gameRoutes.Post("/create", gameController.CreateGame)
	gameRoutes.Post("/join/:gameId", gameController.JoinGame)
	gameRoutes.Get("/:gameId", gameController.GetGameState)
	gameRoutes.Get("/:gameId/moves", gameController.GetMoves)
	gameRoutes.Post("/:gameId/move", gameController.MakeMove)

	resultRoutes := api.Group("/results")
	resultRoutes.Get("/", gameController.ListResults)
	resultRoutes.Get("/stats", gameController.GetStats)
	resultRoutes.Get("/:gameId", gameController.GetResult)
}
