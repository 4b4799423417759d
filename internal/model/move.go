package model

import "github.com/benbeisheim/kingchess-backend/internal/board"

// WSMove is the payload of a "move" message.
type WSMove struct {
	From board.Square `json:"from"`
	To   board.Square `json:"to"`
}

// WSClick is the payload of a "click" message.
type WSClick struct {
	Square board.Square `json:"square"`
}

// MatchFoundEvent is sent to both players once matchmaking pairs them.
type MatchFoundEvent struct {
	GameID string      `json:"gameId"`
	Color  board.Color `json:"color"`
}
