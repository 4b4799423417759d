package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/benbeisheim/kingchess-backend/internal/model"
	"github.com/benbeisheim/kingchess-backend/internal/service"
	"github.com/benbeisheim/kingchess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

// HandleConnection is called when a new WebSocket connection is established
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Locals("wsGameID").(string)
	playerID := c.Locals("wsPlayerID").(string)

	if err := wsc.gameService.RegisterConnection(gameID, playerID, c); err != nil {
		log.Printf("game %s: failed to register connection for %s: %v", gameID, playerID, err)
		c.WriteJSON(ws.NewError(err.Error()))
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, c)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			log.Printf("game %s: read error from %s: %v", gameID, playerID, err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		if err := wsc.dispatch(gameID, playerID, message); err != nil {
			wsc.sendGameError(gameID, c, err.Error())
		}
	}
}

var errMalformed = errors.New("malformed message")

// dispatch decodes one client frame and hands it to handleMessage.
func (wsc *WebSocketController) dispatch(gameID, playerID string, raw []byte) error {
	var msg ws.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return errMalformed
	}
	return wsc.handleMessage(gameID, playerID, msg)
}

func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		_, err := wsc.gameService.HandleMove(gameID, playerID, move)
		return err

	case ws.MessageTypeClick:
		var click model.WSClick
		if err := json.Unmarshal(msg.Payload, &click); err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		_, err := wsc.gameService.HandleClick(gameID, playerID, click)
		return err

	default:
		return fmt.Errorf("unknown message type: %s", msg.Type)
	}
}

// HandleMatchmaking queues the player and holds the connection open until a
// match is found, then sends the MatchFoundEvent and closes.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID := c.Locals("wsPlayerID").(string)

	ch := make(chan string, 1)
	if err := wsc.gameService.RegisterMatchmakingChannel(playerID, ch); err != nil {
		wsc.sendError(c, err.Error())
		return
	}
	if err := wsc.gameService.JoinMatchmaking(playerID); err != nil {
		log.Printf("matchmaking: %s: %v", playerID, err)
	}

	// A read error means the client went away while waiting
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if ok {
			c.WriteMessage(websocket.TextMessage, []byte(event))
		}
	case <-gone:
		wsc.gameService.UnregisterMatchmakingChannel(playerID)
	}
	c.Close()
}

// sendGameError goes through the game so it never overlaps a broadcast.
func (wsc *WebSocketController) sendGameError(gameID string, c *websocket.Conn, errorMsg string) {
	if err := wsc.gameService.SendMessage(gameID, c, ws.NewError(errorMsg)); err != nil {
		log.Printf("game %s: failed to send error: %v", gameID, err)
	}
}

func (wsc *WebSocketController) sendError(c *websocket.Conn, errorMsg string) {
	if err := c.WriteJSON(ws.NewError(errorMsg)); err != nil {
		log.Printf("failed to send error: %v", err)
	}
}
