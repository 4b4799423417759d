package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/benbeisheim/kingchess-backend/internal/board"
	"github.com/benbeisheim/kingchess-backend/internal/engine"
	"github.com/benbeisheim/kingchess-backend/internal/ws"
	"github.com/gofiber/websocket/v2"
)

var (
	ErrGameOver    = errors.New("game is over")
	ErrGameFull    = errors.New("game is full")
	ErrNotInGame   = errors.New("player not in game")
	ErrNotYourTurn = errors.New("not your turn")
	ErrNoPiece     = errors.New("no piece of the side to move at from square")
	ErrIllegalMove = errors.New("invalid move, not legal")
	ErrNotAllowed  = errors.New("not authorized to join this game")
)

// Phase is where the session is in the select-then-move cycle.
type Phase string

const (
	PhaseAwaitingSelection Phase = "awaitingSelection"
	PhasePieceSelected     Phase = "pieceSelected"
	PhaseGameOver          Phase = "gameOver"
)

// The connections for a specific game
type GameConnections struct {
	connections map[string]*websocket.Conn // playerID -> connection
	mu          sync.RWMutex
}

// Game is one session: it owns the board, whose turn it is and the current
// selection. The engine is only ever called with the game lock held.
type Game struct {
	ID          string
	mu          sync.Mutex
	board       *board.Board
	turn        board.Color
	phase       Phase
	selected    *board.Square
	validMoves  []board.Square
	lastMove    *engine.Move
	winner      *board.Color
	plies       int
	sound       string
	captured    CapturedPieces
	players     [2]ClientPlayer
	clocks      [2]*Clock
	startedAt   time.Time
	connections *GameConnections
}

type GameState struct {
	ID             string         `json:"id"`
	Sound          string         `json:"sound"`
	Board          *board.Board   `json:"board"`
	FEN            string         `json:"fen"`
	ToMove         board.Color    `json:"toMove"`
	Phase          Phase          `json:"phase"`
	SelectedSquare *board.Square  `json:"selectedSquare"`
	LegalMoves     []board.Square `json:"legalMoves"`
	LastMove       *engine.Move   `json:"lastMove"`
	Winner         *board.Color   `json:"winner"`
	Plies          int            `json:"plies"`
	CapturedPieces CapturedPieces `json:"capturedPieces"`
	Players        struct {
		White ClientPlayer `json:"white"`
		Black ClientPlayer `json:"black"`
	} `json:"players"`
}

// CapturedPieces lists the pieces each side has taken.
type CapturedPieces struct {
	White []board.Piece `json:"white"`
	Black []board.Piece `json:"black"`
}

// Result summarises a finished game.
type Result struct {
	GameID   string
	Winner   board.Color
	Plies    int
	Duration time.Duration
	WhiteID  string
	BlackID  string
}

func NewGame(id string) *Game {
	return NewGameFromBoard(id, board.New(), board.White)
}

// NewGameFromBoard starts a session on an arbitrary position.
func NewGameFromBoard(id string, b *board.Board, toMove board.Color) *Game {
	g := &Game{
		ID:          id,
		board:       b,
		turn:        toMove,
		phase:       PhaseAwaitingSelection,
		validMoves:  []board.Square{},
		captured:    newCapturedPieces(),
		clocks:      [2]*Clock{NewClock(), NewClock()},
		startedAt:   time.Now(),
		connections: NewGameConnections(),
	}
	g.players[board.White] = ClientPlayer{Color: board.White}
	g.players[board.Black] = ClientPlayer{Color: board.Black}
	return g
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*websocket.Conn),
	}
}

func newCapturedPieces() CapturedPieces {
	return CapturedPieces{
		White: make([]board.Piece, 0),
		Black: make([]board.Piece, 0),
	}
}

// AddPlayer seats the player as White, then Black. Adding a seated player
// again returns their color. The side to move starts thinking once both
// seats are taken.
func (g *Game) AddPlayer(playerID string) (board.Color, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.colorOf(playerID); ok {
		return c, nil
	}
	for _, c := range []board.Color{board.White, board.Black} {
		if g.players[c].ID == "" {
			g.players[c].ID = playerID
			if g.seated() && g.phase != PhaseGameOver {
				g.clocks[g.turn].Start()
			}
			return c, nil
		}
	}
	return board.White, ErrGameFull
}

// seated reports whether both seats are taken. Must hold g.mu.
func (g *Game) seated() bool {
	return g.players[board.White].ID != "" && g.players[board.Black].ID != ""
}

func (g *Game) colorOf(playerID string) (board.Color, bool) {
	for _, c := range []board.Color{board.White, board.Black} {
		if playerID != "" && g.players[c].ID == playerID {
			return c, true
		}
	}
	return board.White, false
}

func (g *Game) IsPlayerInGame(playerID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.colorOf(playerID)
	return ok
}

func (g *Game) canSpectate() bool {
	return g.players[board.White].ID == "" || g.players[board.Black].ID == ""
}

func (g *Game) IsOver() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase == PhaseGameOver
}

// Moves returns the destinations of the piece on sq without touching the
// selection.
func (g *Game) Moves(sq board.Square) ([]board.Square, error) {
	if !engine.InBounds(sq) {
		return nil, fmt.Errorf("%w: %s", board.ErrOutOfRange, sq)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return engine.GenerateMoves(g.board, sq), nil
}

// Click feeds one board click into the selection state machine:
//   - the selected square again clears the selection
//   - a piece of the side to move becomes the selection
//   - a destination of the selection plays the move and passes the turn
//   - anything else clears the selection
//
// The returned status is Ongoing unless the click captured a king.
//
// Every accepted click is broadcast to the game's connections.
func (g *Game) Click(sq board.Square) (engine.Status, error) {
	g.mu.Lock()
	status, err := g.click(sq)
	if err != nil {
		g.mu.Unlock()
		return status, err
	}
	g.unlockAndBroadcast()
	return status, nil
}

// ClickAs is Click for a seated player, who may only click on their turn.
func (g *Game) ClickAs(playerID string, sq board.Square) (engine.Status, error) {
	g.mu.Lock()
	status, err := g.clickAs(playerID, sq)
	if err != nil {
		g.mu.Unlock()
		return status, err
	}
	g.unlockAndBroadcast()
	return status, nil
}

// clickAs checks the seat and turn and clicks in one critical section.
// Must hold g.mu.
func (g *Game) clickAs(playerID string, sq board.Square) (engine.Status, error) {
	c, ok := g.colorOf(playerID)
	if !ok {
		return engine.Ongoing, ErrNotInGame
	}
	if g.phase != PhaseGameOver && c != g.turn {
		return engine.Ongoing, ErrNotYourTurn
	}
	return g.click(sq)
}

// click runs one step of the state machine. Must hold g.mu.
func (g *Game) click(sq board.Square) (engine.Status, error) {
	if !engine.InBounds(sq) {
		return engine.Ongoing, fmt.Errorf("%w: %s", board.ErrOutOfRange, sq)
	}
	if g.phase == PhaseGameOver {
		return engine.Ongoing, ErrGameOver
	}

	if g.selected != nil && *g.selected == sq {
		g.clearSelection()
		return engine.Ongoing, nil
	}
	if g.board.IsFriendly(sq, g.turn) {
		selected := sq
		g.selected = &selected
		g.validMoves = engine.GenerateMoves(g.board, sq)
		g.phase = PhasePieceSelected
		return engine.Ongoing, nil
	}
	if g.selected != nil && containsSquare(g.validMoves, sq) {
		from := *g.selected
		g.clearSelection()
		return g.play(from, sq)
	}
	g.clearSelection()
	return engine.Ongoing, nil
}

// MakeMove plays from->to for a seated player after checking it against the
// generated moves.
func (g *Game) MakeMove(playerID string, from, to board.Square) (engine.Status, error) {
	g.mu.Lock()
	status, err := g.makeMove(playerID, from, to)
	if err != nil {
		g.mu.Unlock()
		return status, err
	}
	g.unlockAndBroadcast()
	return status, nil
}

// makeMove validates and plays from->to. Must hold g.mu.
func (g *Game) makeMove(playerID string, from, to board.Square) (engine.Status, error) {
	if g.phase == PhaseGameOver {
		return engine.Ongoing, ErrGameOver
	}
	c, ok := g.colorOf(playerID)
	if !ok {
		return engine.Ongoing, ErrNotInGame
	}
	if c != g.turn {
		return engine.Ongoing, ErrNotYourTurn
	}
	if !from.InBounds() || !to.InBounds() {
		return engine.Ongoing, fmt.Errorf("%w: %s -> %s", board.ErrOutOfRange, from, to)
	}
	if !g.board.IsFriendly(from, g.turn) {
		return engine.Ongoing, ErrNoPiece
	}
	if !engine.IsValidMove(g.board, from, to) {
		return engine.Ongoing, ErrIllegalMove
	}

	g.clearSelection()
	return g.play(from, to)
}

// play applies a move already known to be valid. Must hold g.mu.
func (g *Game) play(from, to board.Square) (engine.Status, error) {
	mover := g.turn
	status, err := engine.ApplyMove(g.board, from, to)
	if err != nil {
		return status, err
	}
	g.clocks[mover].Stop()
	g.plies++
	g.lastMove = &engine.Move{From: from, To: to}

	g.sound = "move"
	if !status.Captured.IsEmpty() {
		g.sound = "capture"
		if mover == board.White {
			g.captured.White = append(g.captured.White, status.Captured)
		} else {
			g.captured.Black = append(g.captured.Black, status.Captured)
		}
	}

	if status.Ended {
		winner := status.Winner
		g.winner = &winner
		g.phase = PhaseGameOver
		g.sound = "gameOver"
		log.Printf("game %s: %s captured the %s king", g.ID, winner, status.Captured.Color)
	} else {
		g.turn = mover.Opponent()
		if g.seated() {
			g.clocks[g.turn].Start()
		}
	}
	return status, nil
}

func (g *Game) clearSelection() {
	g.selected = nil
	g.validMoves = []board.Square{}
	if g.phase != PhaseGameOver {
		g.phase = PhaseAwaitingSelection
	}
}

func containsSquare(squares []board.Square, sq board.Square) bool {
	for _, s := range squares {
		if s == sq {
			return true
		}
	}
	return false
}

func (g *Game) GetState() GameState {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.snapshot()
}

// snapshot copies everything a client renders. Must hold g.mu.
func (g *Game) snapshot() GameState {
	state := GameState{
		ID:         g.ID,
		Sound:      g.sound,
		Board:      g.board.Clone(),
		FEN:        g.board.FEN(g.turn),
		ToMove:     g.turn,
		Phase:      g.phase,
		LegalMoves: append([]board.Square{}, g.validMoves...),
		Plies:      g.plies,
		CapturedPieces: CapturedPieces{
			White: append([]board.Piece{}, g.captured.White...),
			Black: append([]board.Piece{}, g.captured.Black...),
		},
	}
	if g.selected != nil {
		selected := *g.selected
		state.SelectedSquare = &selected
	}
	if g.lastMove != nil {
		lastMove := *g.lastMove
		state.LastMove = &lastMove
	}
	if g.winner != nil {
		winner := *g.winner
		state.Winner = &winner
	}
	state.Players.White = g.players[board.White]
	state.Players.White.TimeUsed = int(g.clocks[board.White].GetTimeUsed().Milliseconds() / 100)
	state.Players.Black = g.players[board.Black]
	state.Players.Black.TimeUsed = int(g.clocks[board.Black].GetTimeUsed().Milliseconds() / 100)
	return state
}

// Result reports how a finished game ended. ok is false while it is running.
func (g *Game) Result() (Result, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.winner == nil {
		return Result{}, false
	}
	return Result{
		GameID:   g.ID,
		Winner:   *g.winner,
		Plies:    g.plies,
		Duration: time.Since(g.startedAt),
		WhiteID:  g.players[board.White].ID,
		BlackID:  g.players[board.Black].ID,
	}, true
}

func (g *Game) RegisterConnection(playerID string, conn *websocket.Conn) error {
	g.mu.Lock()
	if !g.isSeated(playerID) && !g.canSpectate() {
		g.mu.Unlock()
		return ErrNotAllowed
	}
	state := g.snapshot()
	g.connections.mu.Lock()
	g.mu.Unlock()
	defer g.connections.mu.Unlock()

	if _, exists := g.connections.connections[playerID]; exists {
		// Keep the existing connection and reject the new one
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(
				websocket.CloseNormalClosure,
				"Connection already exists",
			),
		)
		conn.Close()
		return nil
	}
	g.connections.connections[playerID] = conn
	log.Printf("game %s: registered connection for player %s", g.ID, playerID)

	g.broadcast(state)
	return nil
}

func (g *Game) isSeated(playerID string) bool {
	_, ok := g.colorOf(playerID)
	return ok
}

func (g *Game) UnregisterConnection(playerID string, conn *websocket.Conn) {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()

	// Only unregister if this is still the current connection
	if current, exists := g.connections.connections[playerID]; exists && current == conn {
		delete(g.connections.connections, playerID)
		log.Printf("game %s: unregistered connection for player %s", g.ID, playerID)
	}
}

// WriteTo sends msg on conn, serialised with broadcasts.
func (g *Game) WriteTo(conn *websocket.Conn, msg ws.Message) error {
	g.connections.mu.Lock()
	defer g.connections.mu.Unlock()
	return conn.WriteJSON(msg)
}

// unlockAndBroadcast releases g.mu and sends the state it guarded. The
// connections lock is taken before g.mu is released, so broadcasts leave in
// the order the state changed.
func (g *Game) unlockAndBroadcast() {
	state := g.snapshot()
	g.connections.mu.Lock()
	g.mu.Unlock()
	defer g.connections.mu.Unlock()
	g.broadcast(state)
}

// broadcast writes state to every connection. Must hold
// g.connections.mu.
func (g *Game) broadcast(state GameState) {
	payload, err := json.Marshal(state)
	if err != nil {
		log.Printf("game %s: failed to marshal state: %v", g.ID, err)
		return
	}
	msgType := ws.MessageTypeGameState
	if state.Phase == PhaseGameOver {
		msgType = ws.MessageTypeGameOver
	}

	for playerID, conn := range g.connections.connections {
		if err := conn.WriteJSON(ws.Message{
			Type:    msgType,
			Payload: json.RawMessage(payload),
		}); err != nil {
			log.Printf("game %s: failed to send state to player %s: %v", g.ID, playerID, err)
			delete(g.connections.connections, playerID)
		}
	}
}
