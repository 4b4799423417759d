// Package engine generates pseudo-legal moves and applies them to a board.
//
// Moves are geometrically legal and respect occupancy and capture rules, but
// nothing checks whether a move leaves the mover's own king capturable. There
// is no castling, en passant or promotion. The game ends only when a king is
// captured.
//
// The engine holds no state. ApplyMove is the only function that mutates the
// board it is given.
package engine

import "github.com/benbeisheim/kingchess-backend/internal/board"

type direction struct {
	dRow, dCol int
}

var (
	rookDirs   = []direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopDirs = []direction{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	knightDirs = []direction{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
	kingDirs   = []direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func (d direction) from(sq board.Square) board.Square {
	return board.Square{Row: sq.Row + d.dRow, Col: sq.Col + d.dCol}
}

func InBounds(sq board.Square) bool {
	return sq.InBounds()
}

// GenerateMoves returns the destinations reachable by the piece on sq.
// An empty or off-board origin yields an empty slice. Callers must treat the
// result as a set; the order is not part of the contract.
func GenerateMoves(b *board.Board, sq board.Square) []board.Square {
	piece, err := b.Occupant(sq)
	if err != nil || piece.IsEmpty() {
		return []board.Square{}
	}
	switch piece.Type {
	case board.Pawn:
		return pawnMoves(b, sq, piece.Color)
	case board.Rook:
		return slidingMoves(b, sq, piece.Color, rookDirs)
	case board.Bishop:
		return slidingMoves(b, sq, piece.Color, bishopDirs)
	case board.Queen:
		return append(slidingMoves(b, sq, piece.Color, rookDirs), slidingMoves(b, sq, piece.Color, bishopDirs)...)
	case board.Knight:
		return stepMoves(b, sq, piece.Color, knightDirs)
	case board.King:
		return stepMoves(b, sq, piece.Color, kingDirs)
	default:
		return []board.Square{}
	}
}

// pawnForward is -1 for White (towards row 0) and +1 for Black.
func pawnForward(c board.Color) int {
	if c == board.White {
		return -1
	}
	return 1
}

// HomeRow is the row a pawn of color c starts on.
func HomeRow(c board.Color) int {
	if c == board.White {
		return 6
	}
	return 1
}

func pawnMoves(b *board.Board, sq board.Square, c board.Color) []board.Square {
	moves := []board.Square{}
	dir := pawnForward(c)

	one := board.Square{Row: sq.Row + dir, Col: sq.Col}
	if b.IsEmpty(one) {
		moves = append(moves, one)
		two := board.Square{Row: sq.Row + 2*dir, Col: sq.Col}
		if sq.Row == HomeRow(c) && b.IsEmpty(two) {
			moves = append(moves, two)
		}
	}
	for _, dCol := range []int{-1, 1} {
		target := board.Square{Row: sq.Row + dir, Col: sq.Col + dCol}
		if b.IsEnemy(target, c) {
			moves = append(moves, target)
		}
	}
	return moves
}

// slidingMoves walks each direction until the edge, a friendly piece
// (excluded) or an enemy piece (included).
func slidingMoves(b *board.Board, sq board.Square, c board.Color, dirs []direction) []board.Square {
	moves := []board.Square{}
	for _, dir := range dirs {
		target := dir.from(sq)
		for InBounds(target) {
			if b.IsEmpty(target) {
				moves = append(moves, target)
			} else if b.IsEnemy(target, c) {
				moves = append(moves, target)
				break
			} else {
				break
			}
			target = dir.from(target)
		}
	}
	return moves
}

func stepMoves(b *board.Board, sq board.Square, c board.Color, dirs []direction) []board.Square {
	moves := []board.Square{}
	for _, dir := range dirs {
		target := dir.from(sq)
		if InBounds(target) && !b.IsFriendly(target, c) {
			moves = append(moves, target)
		}
	}
	return moves
}

// IsValidMove reports whether to is among the generated destinations of from.
func IsValidMove(b *board.Board, from, to board.Square) bool {
	for _, sq := range GenerateMoves(b, from) {
		if sq == to {
			return true
		}
	}
	return false
}

type Move struct {
	From board.Square `json:"from"`
	To   board.Square `json:"to"`
}

// MovesForColor lists every pseudo-legal move of side c, origins in
// row-major order.
func MovesForColor(b *board.Board, c board.Color) []Move {
	moves := []Move{}
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			from := board.Square{Row: row, Col: col}
			if !b.IsFriendly(from, c) {
				continue
			}
			for _, to := range GenerateMoves(b, from) {
				moves = append(moves, Move{From: from, To: to})
			}
		}
	}
	return moves
}
