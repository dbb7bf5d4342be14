package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
)

// Session board states.
const (
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

// Marks. PlayerTie is stored as the winner of a drawn board.
const (
	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

// WinCombos lists the cell triples of every line: rows, columns, diagonals.
var WinCombos = [][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Game is the board of one session. It knows nothing about connections.
type Game struct {
	ID     string    `json:"id"`
	Board  [9]string `json:"board"`
	Winner string    `json:"winner"`
	Status string    `json:"status"`
	Turn   string    `json:"player_turn"`
	Moves  int       `json:"moves"`
}

func NewGame(id string) *Game {
	return &Game{
		ID:     id,
		Board:  [9]string{EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell, EmptyCell},
		Turn:   PlayerX,
		Status: StatusOngoing,
	}
}

// DetermineGameResult reports the mark owning a completed line. Lines are
// checked before fullness, so a ninth move that completes one wins.
// Returns PlayerTie on a full board and "" otherwise.
func (that *Game) DetermineGameResult() string {
	for _, line := range WinCombos {
		mark := that.Board[line[0]]
		if mark != EmptyCell && that.Board[line[1]] == mark && that.Board[line[2]] == mark {
			return mark
		}
	}

	for _, cell := range that.Board {
		if cell == EmptyCell {
			return ""
		}
	}

	return PlayerTie
}

// UpdateGameState - finishes the game once it has a result.
func (that *Game) UpdateGameState() {
	result := that.DetermineGameResult()
	if result == "" {
		that.Status = StatusOngoing
		return
	}

	that.Winner = result
	that.Status = StatusFinished
	that.Turn = ""
}

// MakeTurn - places playerMark on cell and advances the game. The board is untouched on error.
func (that *Game) MakeTurn(playerMark string, cell int) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	if that.Turn != playerMark {
		return apperror.ErrNotYourTurn
	}

	if cell < 0 || cell >= len(that.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.Board[cell] != EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	that.Board[cell] = playerMark
	that.Moves++

	that.UpdateGameState()
	if that.IsOngoing() {
		that.Turn = Opponent(playerMark)
	}

	return nil
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsTie() bool {
	return that.IsFinished() && that.Winner == PlayerTie
}

// Opponent returns the other mark.
func Opponent(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
