package engine

import (
	"fmt"

	"github.com/benbeisheim/kingchess-backend/internal/board"
)

// Status is the outcome of applying a move.
type Status struct {
	// Ended is set once a king has been captured.
	Ended bool `json:"ended"`
	// Winner is only meaningful when Ended is set.
	Winner board.Color `json:"winner"`
	// Captured is whatever stood on the destination, Empty for a quiet move.
	Captured board.Piece `json:"captured"`
}

// Ongoing reports a move after which play continues.
var Ongoing = Status{}

// ApplyMove moves the occupant of from onto to, overwriting whatever was
// there, and clears from.
//
// ApplyMove does not check that to is reachable from from. Callers must only
// pass a destination returned by GenerateMoves (see IsValidMove); any other
// pair is relocated silently. ApplyMove does not change the side to move.
//
// The returned error is only ever board.ErrOutOfRange, in which case the board
// is left untouched.
func ApplyMove(b *board.Board, from, to board.Square) (Status, error) {
	moving, err := b.Occupant(from)
	if err != nil {
		return Ongoing, fmt.Errorf("apply move from: %w", err)
	}
	captured, err := b.Occupant(to)
	if err != nil {
		return Ongoing, fmt.Errorf("apply move to: %w", err)
	}

	b.Set(to, moving)
	b.Set(from, board.Empty)

	if captured.Type == board.King {
		return Status{Ended: true, Winner: captured.Color.Opponent(), Captured: captured}, nil
	}
	return Status{Captured: captured}, nil
}
