// Command hotseat plays a two-player game in the terminal. Each input line is
// one board click given as "row col"; the first click selects a piece, the
// second picks one of its highlighted destinations.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/benbeisheim/kingchess-backend/internal/board"
	"github.com/benbeisheim/kingchess-backend/internal/model"
	"github.com/fatih/color"
)

func main() {
	noColor := flag.Bool("no-color", false, "disable colored output")
	logPath := flag.String("log", "", "path to log file, empty to discard logs")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}
	initLog(*logPath)

	if err := play(os.Stdin, os.Stdout, model.NewGame("hotseat")); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLog(dest string) {
	if dest == "" {
		log.SetOutput(io.Discard)
		return
	}
	f, err := os.OpenFile(dest, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	log.SetOutput(f)
	log.SetPrefix("HOTSEAT: ")
}

// play runs the click loop until the game ends or in runs out.
func play(in io.Reader, out io.Writer, game *model.Game) error {
	scanner := bufio.NewScanner(in)
	for {
		state := game.GetState()
		fmt.Fprint(out, render(state))
		if state.Phase == model.PhaseGameOver {
			fmt.Fprintf(out, "King captured! %s wins!\n", sideName(*state.Winner))
			return nil
		}
		fmt.Fprintf(out, "%s to move> ", sideName(state.ToMove))

		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "q" || line == "quit" {
			return nil
		}
		sq, err := parseSquare(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if _, err := game.Click(sq); err != nil {
			fmt.Fprintln(out, err)
		}
	}
}

var errBadInput = errors.New(`expected "row col" with both in 0-7, or "q" to quit`)

func parseSquare(line string) (board.Square, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return board.Square{}, errBadInput
	}
	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return board.Square{}, errBadInput
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return board.Square{}, errBadInput
	}
	sq := board.Square{Row: row, Col: col}
	if !sq.InBounds() {
		return board.Square{}, errBadInput
	}
	return sq, nil
}

func sideName(c board.Color) string {
	if c == board.White {
		return "White"
	}
	return "Black"
}
