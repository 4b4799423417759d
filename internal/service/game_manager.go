// service/game_manager.go
package service

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/benbeisheim/kingchess-backend/internal/model"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameExists   = errors.New("game already exists")
)

const matchmakingInterval = time.Second

type GameManager struct {
	games            map[string]*model.Game
	queue            *model.Queue
	matchingChannels map[string]chan string
	mu               sync.RWMutex
	done             chan struct{}
	closeOnce        sync.Once
}

func NewGameManager() *GameManager {
	gm := newGameManager()

	// Start matchmaking processor
	go gm.processMatchmaking()

	return gm
}

func newGameManager() *GameManager {
	return &GameManager{
		games:            make(map[string]*model.Game),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan string),
		done:             make(chan struct{}),
	}
}

// Close stops the matchmaking processor.
func (gm *GameManager) Close() {
	gm.closeOnce.Do(func() { close(gm.done) })
}

func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	// Replace any channel left over from an earlier connection
	if existingCh, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existingCh)
	}

	gm.matchingChannels[playerID] = ch
	return nil
}

func (gm *GameManager) UnregisterMatchmakingChannel(playerID string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	// The channel is not closed here; its creator owns it
	delete(gm.matchingChannels, playerID)
}

func (gm *GameManager) processMatchmaking() {
	ticker := time.NewTicker(matchmakingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-gm.done:
			return
		case <-ticker.C:
			gm.matchPlayers()
		}
	}
}

// matchPlayers pairs queued players two at a time into new games and tells
// both of them over their matchmaking channels.
func (gm *GameManager) matchPlayers() []string {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	var created []string
	for {
		player1, player2, ok := gm.queue.GetNextPair()
		if !ok {
			return created
		}

		gameID := uuid.New().String()
		game := model.NewGame(gameID)
		p1Color, err := game.AddPlayer(player1.ID)
		if err != nil {
			log.Printf("matchmaking: adding player %s: %v", player1.ID, err)
			continue
		}
		p2Color, err := game.AddPlayer(player2.ID)
		if err != nil {
			log.Printf("matchmaking: adding player %s: %v", player2.ID, err)
			continue
		}
		gm.games[gameID] = game
		created = append(created, gameID)

		sendEventAndCleanup := func(playerID string, event model.MatchFoundEvent) bool {
			ch, ok := gm.matchingChannels[playerID]
			if !ok {
				return false
			}
			select {
			case ch <- mustJSON(event):
				delete(gm.matchingChannels, playerID)
				close(ch)
				return true
			default:
				return false
			}
		}

		sentWhite := sendEventAndCleanup(player1.ID, model.MatchFoundEvent{GameID: gameID, Color: p1Color})
		sentBlack := sendEventAndCleanup(player2.ID, model.MatchFoundEvent{GameID: gameID, Color: p2Color})
		if !sentWhite || !sentBlack {
			// Players can still find the game through GET /api/game/:gameId
			log.Printf("matchmaking: game %s created but not every player was notified", gameID)
		}
	}
}

func mustJSON(v interface{}) string {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(bytes)
}

func (gm *GameManager) CreateGame(gameID string) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[gameID]; exists {
		return ErrGameExists
	}

	gm.games[gameID] = model.NewGame(gameID)
	return nil
}

func (gm *GameManager) GetGame(gameID string) (*model.Game, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	game, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}

	return game, nil
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	return gm.queue.AddPlayer(model.Player{ID: playerID})
}

func (gm *GameManager) LeaveMatchmaking(playerID string) {
	gm.queue.Remove(playerID)
}

func (gm *GameManager) RegisterConnection(gameID string, playerID string, conn *websocket.Conn) error {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return err
	}
	return game.RegisterConnection(playerID, conn)
}

func (gm *GameManager) UnregisterConnection(gameID string, playerID string, conn *websocket.Conn) {
	game, err := gm.GetGame(gameID)
	if err != nil {
		return
	}
	game.UnregisterConnection(playerID, conn)
}
