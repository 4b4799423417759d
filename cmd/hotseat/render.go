package main

import (
	"fmt"
	"strings"

	"github.com/benbeisheim/kingchess-backend/internal/board"
	"github.com/benbeisheim/kingchess-backend/internal/model"
	"github.com/fatih/color"
)

var glyphs = map[board.Color]map[board.PieceType]string{
	board.White: {
		board.Pawn: "♙", board.Rook: "♖", board.Knight: "♘",
		board.Bishop: "♗", board.Queen: "♕", board.King: "♔",
	},
	board.Black: {
		board.Pawn: "♟", board.Rook: "♜", board.Knight: "♞",
		board.Bishop: "♝", board.Queen: "♛", board.King: "♚",
	},
}

var (
	lightSquare    = color.New(color.FgBlack, color.BgWhite)
	darkSquare     = color.New(color.FgBlack, color.BgHiBlack)
	selectedSquare = color.New(color.FgBlack, color.BgBlue)
	targetSquare   = color.New(color.FgBlack, color.BgGreen)
)

func glyph(p board.Piece) string {
	if p.IsEmpty() {
		return " "
	}
	return glyphs[p.Color][p.Type]
}

// squareStyle follows the board's checker pattern, with the selection and
// its destinations highlighted.
func squareStyle(sq board.Square, state model.GameState, targets map[board.Square]bool) *color.Color {
	switch {
	case state.SelectedSquare != nil && *state.SelectedSquare == sq:
		return selectedSquare
	case targets[sq]:
		return targetSquare
	case (sq.Row+sq.Col)%2 == 0:
		return lightSquare
	default:
		return darkSquare
	}
}

func render(state model.GameState) string {
	targets := make(map[board.Square]bool, len(state.LegalMoves))
	for _, sq := range state.LegalMoves {
		targets[sq] = true
	}

	var sb strings.Builder
	sb.WriteString("   0  1  2  3  4  5  6  7\n")
	for row := 0; row < board.Size; row++ {
		fmt.Fprintf(&sb, "%d ", row)
		for col := 0; col < board.Size; col++ {
			sq := board.Square{Row: row, Col: col}
			p, _ := state.Board.Occupant(sq)
			sb.WriteString(squareStyle(sq, state, targets).Sprintf(" %s ", glyph(p)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
