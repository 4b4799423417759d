package service

import (
	"fmt"
	"log"

	"github.com/benbeisheim/kingchess-backend/internal/board"
	"github.com/benbeisheim/kingchess-backend/internal/engine"
	"github.com/benbeisheim/kingchess-backend/internal/model"
	"github.com/benbeisheim/kingchess-backend/internal/storage"
	"github.com/benbeisheim/kingchess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type GameService struct {
	gameManager *GameManager
	store       *storage.Storage
}

func NewGameService(gameManager *GameManager, store *storage.Storage) *GameService {
	return &GameService{
		gameManager: gameManager,
		store:       store,
	}
}

func (gs *GameService) CreateGame() (string, error) {
	gameID := uuid.New().String()

	if err := gs.gameManager.CreateGame(gameID); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	return gameID, nil
}

func (gs *GameService) JoinGame(gameID string, playerID string) (board.Color, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return board.White, err
	}
	return game.AddPlayer(playerID)
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (model.GameState, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.GameState{}, err
	}
	return game.GetState(), nil
}

// GetMoves lists the destinations of the piece on sq in game gameID.
func (gs *GameService) GetMoves(gameID string, sq board.Square) ([]board.Square, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return game.Moves(sq)
}

func (gs *GameService) HandleMove(gameID string, playerID string, move model.WSMove) (engine.Status, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return engine.Ongoing, err
	}

	status, err := game.MakeMove(playerID, move.From, move.To)
	if err != nil {
		return status, err
	}
	gs.recordIfOver(game, status)
	return status, nil
}

func (gs *GameService) HandleClick(gameID string, playerID string, click model.WSClick) (engine.Status, error) {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return engine.Ongoing, err
	}

	status, err := game.ClickAs(playerID, click.Square)
	if err != nil {
		return status, err
	}
	gs.recordIfOver(game, status)
	return status, nil
}

func (gs *GameService) recordIfOver(game *model.Game, status engine.Status) {
	if !status.Ended {
		return
	}
	res, ok := game.Result()
	if !ok {
		return
	}
	rec := storage.GameRecord{
		ID:       res.GameID,
		Winner:   res.Winner,
		Plies:    res.Plies,
		Duration: res.Duration,
		WhiteID:  res.WhiteID,
		BlackID:  res.BlackID,
	}
	if err := gs.store.SaveResult(rec); err != nil {
		log.Printf("game %s: failed to record result: %v", res.GameID, err)
		return
	}
	log.Printf("game %s: %s wins after %d plies", res.GameID, res.Winner, res.Plies)
}

func (gs *GameService) GetResult(gameID string) (storage.GameRecord, error) {
	return gs.store.LoadResult(gameID)
}

func (gs *GameService) ListResults(limit int) ([]storage.GameRecord, error) {
	return gs.store.ListResults(limit)
}

func (gs *GameService) GetStats() (storage.Stats, error) {
	return gs.store.LoadStats()
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	return gs.gameManager.RegisterConnection(gameID, playerID, conn)
}

// SendMessage writes msg to a connection registered with game gameID.
func (gs *GameService) SendMessage(gameID string, conn *websocket.Conn, msg ws.Message) error {
	game, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.WriteTo(conn, msg)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, conn *websocket.Conn) {
	gs.gameManager.UnregisterConnection(gameID, playerID, conn)
}

func (gs *GameService) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	return gs.gameManager.RegisterMatchmakingChannel(playerID, ch)
}

func (gs *GameService) UnregisterMatchmakingChannel(playerID string) {
	gs.gameManager.UnregisterMatchmakingChannel(playerID)
	gs.gameManager.LeaveMatchmaking(playerID)
}
