package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeClick     MessageType = "click"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeGameOver  MessageType = "gameOver"
	MessageTypeError     MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload is the payload of an "error" message.
type ErrorPayload struct {
	Error string `json:"error"`
}

// NewError builds an "error" message.
func NewError(msg string) Message {
	payload, _ := json.Marshal(ErrorPayload{Error: msg})
	return Message{Type: MessageTypeError, Payload: payload}
}
