package websocket

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
)

var errBinaryFrame = fmt.Errorf("%w: binary frames are not supported", apperror.ErrMalformedMessage)

var errorTexts = []struct {
	err  error
	text string
}{
	{apperror.ErrMalformedMessage, "Malformed message"},
	{apperror.ErrRoomNotFound, "Room not found"},
	{apperror.ErrRoomFull, "Room is full"},
	{apperror.ErrNotYourTurn, "Not your turn"},
	{apperror.ErrInvalidCell, "Invalid move"},
	{apperror.ErrCellOccupied, "Invalid move"},
	{apperror.ErrAlreadyInGame, "You already played a game on this connection"},
	{apperror.ErrAlreadyHosting, "You already host a room"},
	{apperror.ErrRoomCodeExhausted, "Could not create a room, try again"},
	{apperror.ErrWrongMode, "Not available in this mode"},
	{apperror.ErrModeDisabled, "This mode is disabled"},
	{apperror.ErrNotInGame, "You are not in a game"},
}

// errorText - maps err to the message shown to the client. Moves after the
// game ended get no reply.
func errorText(err error) (string, bool) {
	if errors.Is(err, apperror.ErrGameFinished) {
		return "", false
	}

	for _, e := range errorTexts {
		if errors.Is(err, e.err) {
			return e.text, true
		}
	}

	return "Internal error", true
}
