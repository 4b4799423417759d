package model

import "github.com/benbeisheim/kingchess-backend/internal/board"

type Player struct {
	ID string
}

// ClientPlayer is the player as sent to clients. TimeUsed is in tenths of a
// second.
type ClientPlayer struct {
	ID       string      `json:"name"`
	Color    board.Color `json:"color"`
	TimeUsed int         `json:"timeUsed"`
}
