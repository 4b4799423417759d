package controller

import (
	"errors"

	"github.com/benbeisheim/kingchess-backend/internal/board"
	"github.com/benbeisheim/kingchess-backend/internal/model"
	"github.com/benbeisheim/kingchess-backend/internal/service"
	"github.com/benbeisheim/kingchess-backend/internal/storage"
	"github.com/gofiber/fiber/v2"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.Is(err, storage.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, board.ErrOutOfRange), errors.Is(err, model.ErrIllegalMove), errors.Is(err, model.ErrNoPiece):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrNotInGame), errors.Is(err, model.ErrNotYourTurn), errors.Is(err, model.ErrNotAllowed):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrGameOver), errors.Is(err, model.ErrGameFull), errors.Is(err, model.ErrAlreadyQueued):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func sendError(c *fiber.Ctx, err error) error {
	return c.Status(errorStatus(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	gameID, err := gc.gameService.CreateGame()
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	gameID := c.Params("gameId")
	playerID := c.Locals("playerID").(string)

	color, err := gc.gameService.JoinGame(gameID, playerID)
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(gameState)
}

// GetMoves answers GET /api/game/:gameId/moves?row=&col=.
func (gc *GameController) GetMoves(c *fiber.Ctx) error {
	sq := board.Square{Row: c.QueryInt("row", -1), Col: c.QueryInt("col", -1)}

	moves, err := gc.gameService.GetMoves(c.Params("gameId"), sq)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"from":  sq,
		"moves": moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	playerID := c.Locals("playerID").(string)

	var move model.WSMove
	if err := c.BodyParser(&move); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid move payload",
		})
	}

	status, err := gc.gameService.HandleMove(c.Params("gameId"), playerID, move)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(status)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	playerID := c.Locals("playerID").(string)

	if err := gc.gameService.JoinMatchmaking(playerID); err != nil {
		return sendError(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) ListResults(c *fiber.Ctx) error {
	results, err := gc.gameService.ListResults(c.QueryInt("limit", 20))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(results)
}

func (gc *GameController) GetResult(c *fiber.Ctx) error {
	result, err := gc.gameService.GetResult(c.Params("gameId"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(result)
}

func (gc *GameController) GetStats(c *fiber.Ctx) error {
	stats, err := gc.gameService.GetStats()
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(stats)
}
