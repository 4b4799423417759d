package model

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbeisheim/kingchess-backend/internal/board"
)

func sq(row, col int) board.Square {
	return board.Square{Row: row, Col: col}
}

func TestAddPlayer(t *testing.T) {
	g := NewGame("g1")

	c, err := g.AddPlayer("alice")
	if err != nil || c != board.White {
		t.Fatalf("expected alice to be white, got %s, %v", c, err)
	}
	c, err = g.AddPlayer("bob")
	if err != nil || c != board.Black {
		t.Fatalf("expected bob to be black, got %s, %v", c, err)
	}
	if c, err := g.AddPlayer("alice"); err != nil || c != board.White {
		t.Errorf("expected rejoin to keep white, got %s, %v", c, err)
	}
	if _, err := g.AddPlayer("carol"); !errors.Is(err, ErrGameFull) {
		t.Errorf("expected ErrGameFull, got %v", err)
	}
	if !g.IsPlayerInGame("bob") || g.IsPlayerInGame("carol") {
		t.Errorf("unexpected seating")
	}
}

func TestClickStateMachine(t *testing.T) {
	g := NewGame("g1")

	t.Run("OpponentPieceIsIgnored", func(t *testing.T) {
		g.Click(sq(1, 4))
		if s := g.GetState(); s.Phase != PhaseAwaitingSelection || s.SelectedSquare != nil {
			t.Fatalf("expected no selection after clicking a black piece, got %+v", s.SelectedSquare)
		}
	})

	t.Run("SelectOwnPiece", func(t *testing.T) {
		g.Click(sq(6, 4))
		s := g.GetState()
		if s.Phase != PhasePieceSelected || s.SelectedSquare == nil || *s.SelectedSquare != sq(6, 4) {
			t.Fatalf("expected (6,4) selected, got %+v", s)
		}
		if len(s.LegalMoves) != 2 {
			t.Errorf("expected 2 cached moves, got %v", s.LegalMoves)
		}
	})

	t.Run("SameSquareDeselects", func(t *testing.T) {
		g.Click(sq(6, 4))
		if s := g.GetState(); s.Phase != PhaseAwaitingSelection || len(s.LegalMoves) != 0 {
			t.Fatalf("expected selection cleared, got %+v", s)
		}
	})

	t.Run("InvalidDestinationResets", func(t *testing.T) {
		g.Click(sq(6, 4))
		g.Click(sq(3, 4))
		s := g.GetState()
		if s.Phase != PhaseAwaitingSelection || s.ToMove != board.White {
			t.Fatalf("expected reset with white still to move, got %+v", s)
		}
		if s.Plies != 0 {
			t.Errorf("expected no move played")
		}
	})

	t.Run("SwitchSelection", func(t *testing.T) {
		g.Click(sq(6, 4))
		g.Click(sq(7, 6))
		s := g.GetState()
		if s.SelectedSquare == nil || *s.SelectedSquare != sq(7, 6) {
			t.Fatalf("expected knight selected, got %+v", s.SelectedSquare)
		}
	})

	t.Run("PlayMove", func(t *testing.T) {
		status, err := g.Click(sq(5, 5))
		if err != nil {
			t.Fatalf("Click failed: %v", err)
		}
		if status.Ended {
			t.Fatalf("expected ongoing")
		}
		s := g.GetState()
		if s.ToMove != board.Black {
			t.Errorf("expected black to move, got %s", s.ToMove)
		}
		if s.Phase != PhaseAwaitingSelection || s.SelectedSquare != nil {
			t.Errorf("expected selection cleared after move")
		}
		if s.LastMove == nil || s.LastMove.From != sq(7, 6) || s.LastMove.To != sq(5, 5) {
			t.Errorf("unexpected last move %+v", s.LastMove)
		}
		if s.Plies != 1 || s.Sound != "move" {
			t.Errorf("expected one quiet ply, got %d %q", s.Plies, s.Sound)
		}
	})

	t.Run("WhiteCannotMoveTwice", func(t *testing.T) {
		g.Click(sq(6, 0))
		if s := g.GetState(); s.SelectedSquare != nil {
			t.Fatalf("expected white piece not selectable on black's turn")
		}
	})
}

func TestClickOutOfRange(t *testing.T) {
	g := NewGame("g1")
	if _, err := g.Click(sq(8, 8)); !errors.Is(err, board.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func kingHuntGame() *Game {
	b := board.NewEmpty()
	b.Set(sq(7, 4), board.NewPiece(board.White, board.King))
	b.Set(sq(0, 4), board.NewPiece(board.Black, board.Rook))
	b.Set(sq(0, 0), board.NewPiece(board.Black, board.King))
	b.Set(sq(6, 0), board.NewPiece(board.White, board.Pawn))
	return NewGameFromBoard("hunt", b, board.Black)
}

func TestKingCaptureEndsGame(t *testing.T) {
	g := kingHuntGame()

	g.Click(sq(0, 4))
	status, err := g.Click(sq(7, 4))
	if err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if !status.Ended || status.Winner != board.Black {
		t.Fatalf("expected black win, got %+v", status)
	}

	s := g.GetState()
	if s.Phase != PhaseGameOver || s.Winner == nil || *s.Winner != board.Black {
		t.Fatalf("expected game over with black winner, got %+v", s)
	}
	if len(s.CapturedPieces.Black) != 1 || s.CapturedPieces.Black[0] != board.NewPiece(board.White, board.King) {
		t.Errorf("expected black to have captured the white king, got %v", s.CapturedPieces.Black)
	}

	if _, err := g.Click(sq(6, 0)); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver on click, got %v", err)
	}
	if s := g.GetState(); s.SelectedSquare != nil {
		t.Errorf("expected no selection after game over")
	}

	res, ok := g.Result()
	if !ok || res.Winner != board.Black || res.Plies != 1 || res.GameID != "hunt" {
		t.Errorf("unexpected result %+v %v", res, ok)
	}
}

func TestResultWhileRunning(t *testing.T) {
	if _, ok := NewGame("g1").Result(); ok {
		t.Errorf("expected no result for a running game")
	}
}

func TestMakeMove(t *testing.T) {
	g := NewGame("g1")
	g.AddPlayer("alice")
	g.AddPlayer("bob")

	tests := []struct {
		name     string
		playerID string
		from, to board.Square
		wantErr  error
	}{
		{"stranger", "carol", sq(6, 4), sq(4, 4), ErrNotInGame},
		{"wrong turn", "bob", sq(1, 4), sq(3, 4), ErrNotYourTurn},
		{"empty origin", "alice", sq(4, 4), sq(3, 4), ErrNoPiece},
		{"enemy origin", "alice", sq(1, 4), sq(2, 4), ErrNoPiece},
		{"unreachable", "alice", sq(6, 4), sq(3, 4), ErrIllegalMove},
		{"off board", "alice", sq(6, 4), sq(-1, 4), board.ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.MakeMove(tt.playerID, tt.from, tt.to); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := g.MakeMove("alice", sq(6, 4), sq(4, 4)); err != nil {
		t.Fatalf("expected legal move to succeed: %v", err)
	}
	if _, err := g.MakeMove("bob", sq(1, 3), sq(3, 3)); err != nil {
		t.Fatalf("expected legal move to succeed: %v", err)
	}
	status, err := g.MakeMove("alice", sq(4, 4), sq(3, 3))
	if err != nil {
		t.Fatalf("expected capture to succeed: %v", err)
	}
	if status.Ended || status.Captured != board.NewPiece(board.Black, board.Pawn) {
		t.Errorf("expected ongoing pawn capture, got %+v", status)
	}
	if s := g.GetState(); s.Sound != "capture" || len(s.CapturedPieces.White) != 1 {
		t.Errorf("expected capture recorded, got %q %v", s.Sound, s.CapturedPieces.White)
	}
}

func TestClickAs(t *testing.T) {
	g := NewGame("g1")
	g.AddPlayer("alice")
	g.AddPlayer("bob")

	if _, err := g.ClickAs("bob", sq(1, 4)); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := g.ClickAs("carol", sq(6, 4)); !errors.Is(err, ErrNotInGame) {
		t.Errorf("expected ErrNotInGame, got %v", err)
	}
	if _, err := g.ClickAs("alice", sq(6, 4)); err != nil {
		t.Fatalf("ClickAs failed: %v", err)
	}
	if _, err := g.ClickAs("alice", sq(4, 4)); err != nil {
		t.Fatalf("ClickAs failed: %v", err)
	}
	if s := g.GetState(); s.ToMove != board.Black || s.Plies != 1 {
		t.Errorf("expected one ply and black to move, got %+v", s)
	}
}

func TestMovesDoesNotSelect(t *testing.T) {
	g := NewGame("g1")
	moves, err := g.Moves(sq(7, 1))
	if err != nil {
		t.Fatalf("Moves failed: %v", err)
	}
	if len(moves) != 2 {
		t.Errorf("expected 2 knight moves, got %v", moves)
	}
	if s := g.GetState(); s.SelectedSquare != nil {
		t.Errorf("Moves must not change the selection")
	}
	if _, err := g.Moves(sq(0, 9)); !errors.Is(err, board.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestStateFEN(t *testing.T) {
	s := NewGame("g1").GetState()
	if s.FEN != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1" {
		t.Errorf("unexpected FEN %q", s.FEN)
	}
}

func TestClocksStartWhenSeated(t *testing.T) {
	g := NewGame("g1")
	if g.clocks[board.White].IsRunning() || g.clocks[board.Black].IsRunning() {
		t.Fatalf("expected no clock running before anyone sits down")
	}

	g.AddPlayer("alice")
	if g.clocks[board.White].IsRunning() {
		t.Fatalf("expected white's clock stopped with one seat taken")
	}
	time.Sleep(5 * time.Millisecond)

	g.AddPlayer("bob")
	if !g.clocks[board.White].IsRunning() || g.clocks[board.Black].IsRunning() {
		t.Fatalf("expected only white's clock running once both are seated")
	}
	if used := g.clocks[board.White].GetTimeUsed(); used >= 5*time.Millisecond {
		t.Errorf("waiting time counted as thinking time: %v", used)
	}

	if _, err := g.MakeMove("alice", sq(6, 4), sq(4, 4)); err != nil {
		t.Fatalf("MakeMove failed: %v", err)
	}
	if g.clocks[board.White].IsRunning() || !g.clocks[board.Black].IsRunning() {
		t.Errorf("expected the clock to pass to black")
	}
}

func TestClickAsAfterGameOver(t *testing.T) {
	g := kingHuntGame()
	g.AddPlayer("alice")
	g.AddPlayer("bob")

	g.ClickAs("bob", sq(0, 4))
	if status, err := g.ClickAs("bob", sq(7, 4)); err != nil || !status.Ended {
		t.Fatalf("expected black to capture the king, got %+v %v", status, err)
	}
	for _, player := range []string{"alice", "bob"} {
		if _, err := g.ClickAs(player, sq(6, 0)); !errors.Is(err, ErrGameOver) {
			t.Errorf("%s: expected ErrGameOver, got %v", player, err)
		}
	}
}

func TestConcurrentClickAs(t *testing.T) {
	g := NewGame("g1")
	g.AddPlayer("alice")
	g.AddPlayer("bob")

	// Both sides click at once. Whatever interleaving wins, the session
	// stays consistent with whose turn it is.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.ClickAs("alice", sq(6, 4))
			g.ClickAs("alice", sq(4, 4))
		}()
		go func() {
			defer wg.Done()
			g.ClickAs("bob", sq(1, 4))
			g.ClickAs("bob", sq(3, 4))
		}()
	}
	wg.Wait()

	s := g.GetState()
	if s.Plies > 2 {
		t.Fatalf("expected at most two plies, got %d", s.Plies)
	}
	wantToMove := board.White
	if s.Plies%2 == 1 {
		wantToMove = board.Black
	}
	if s.ToMove != wantToMove {
		t.Errorf("expected %s to move after %d plies, got %s", wantToMove, s.Plies, s.ToMove)
	}
	if s.Plies >= 1 {
		if p, _ := s.Board.Occupant(sq(4, 4)); p != board.NewPiece(board.White, board.Pawn) {
			t.Errorf("expected white pawn on (4,4), got %s", p)
		}
	}
	if s.Plies == 2 {
		if p, _ := s.Board.Occupant(sq(3, 4)); p != board.NewPiece(board.Black, board.Pawn) {
			t.Errorf("expected black pawn on (3,4), got %s", p)
		}
	}
	if s.SelectedSquare != nil {
		if p, _ := s.Board.Occupant(*s.SelectedSquare); p.Color != s.ToMove {
			t.Errorf("selection %s does not belong to the side to move", s.SelectedSquare)
		}
	}
}
