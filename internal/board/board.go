// Package board holds the 8x8 grid of piece occupants and the read-only
// queries the move engine and session layer ask of it.
package board

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const Size = 8

var ErrOutOfRange = errors.New("square out of range")

// Square is a (row, column) pair. Row 0 is Black's back rank, row 7 is White's.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s Square) InBounds() bool {
	return s.Row >= 0 && s.Row < Size && s.Col >= 0 && s.Col < Size
}

func (s Square) String() string {
	return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
}

type Board struct {
	cells [Size][Size]Piece
}

var backRank = [Size]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// New returns a board in the starting layout.
func New() *Board {
	b := &Board{}
	for col := 0; col < Size; col++ {
		b.cells[0][col] = NewPiece(Black, backRank[col])
		b.cells[1][col] = NewPiece(Black, Pawn)
		b.cells[6][col] = NewPiece(White, Pawn)
		b.cells[7][col] = NewPiece(White, backRank[col])
	}
	return b
}

// NewEmpty returns a board with every cell empty.
func NewEmpty() *Board {
	return &Board{}
}

// Clone returns an independent copy, for callers that analyse a position
// without touching the session's board.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

func (b *Board) Occupant(sq Square) (Piece, error) {
	if !sq.InBounds() {
		return Empty, fmt.Errorf("%w: %s", ErrOutOfRange, sq)
	}
	return b.cells[sq.Row][sq.Col], nil
}

// at is Occupant for callers that already checked bounds.
func (b *Board) at(sq Square) Piece {
	return b.cells[sq.Row][sq.Col]
}

func (b *Board) IsEmpty(sq Square) bool {
	return sq.InBounds() && b.at(sq).IsEmpty()
}

func (b *Board) IsEnemy(sq Square, c Color) bool {
	if !sq.InBounds() {
		return false
	}
	p := b.at(sq)
	return !p.IsEmpty() && p.Color != c
}

func (b *Board) IsFriendly(sq Square, c Color) bool {
	if !sq.InBounds() {
		return false
	}
	p := b.at(sq)
	return !p.IsEmpty() && p.Color == c
}

// Set overwrites a cell. Nothing beyond bounds is validated.
func (b *Board) Set(sq Square, p Piece) error {
	if !sq.InBounds() {
		return fmt.Errorf("%w: %s", ErrOutOfRange, sq)
	}
	b.cells[sq.Row][sq.Col] = p
	return nil
}

// Find returns every square holding exactly p, in row-major order.
func (b *Board) Find(p Piece) []Square {
	var squares []Square
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if b.cells[row][col] == p {
				squares = append(squares, Square{Row: row, Col: col})
			}
		}
	}
	return squares
}

// FEN renders the position with turn as side to move. Castling and en passant
// do not exist in this rule set, so those fields are always "-".
func (b *Board) FEN(turn Color) string {
	var sb strings.Builder
	for row := 0; row < Size; row++ {
		empty := 0
		for col := 0; col < Size; col++ {
			p := b.cells[row][col]
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteByte(p.Letter())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row < Size-1 {
			sb.WriteByte('/')
		}
	}
	side := "w"
	if turn == Black {
		side = "b"
	}
	fmt.Fprintf(&sb, " %s - - 0 1", side)
	return sb.String()
}

// String draws the board with row 0 at the top.
func (b *Board) String() string {
	var sb strings.Builder
	for row := 0; row < Size; row++ {
		fmt.Fprintf(&sb, "%d ", row)
		for col := 0; col < Size; col++ {
			sb.WriteByte(b.cells[row][col].Letter())
			if col < Size-1 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  0 1 2 3 4 5 6 7\n")
	return sb.String()
}

// MarshalJSON encodes the grid as rows of pieces, null for empty cells.
func (b *Board) MarshalJSON() ([]byte, error) {
	rows := make([][]*Piece, Size)
	for row := 0; row < Size; row++ {
		rows[row] = make([]*Piece, Size)
		for col := 0; col < Size; col++ {
			if p := b.cells[row][col]; !p.IsEmpty() {
				rows[row][col] = &p
			}
		}
	}
	return json.Marshal(rows)
}
