package apperror

import "errors"

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrInvalidCell      = errors.New("invalid cell index")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrPeerDisconnected = errors.New("opponent disconnected")
	ErrGameFinished     = errors.New("game is already finished")

	ErrAlreadyInGame     = errors.New("connection already played a game")
	ErrAlreadyHosting    = errors.New("connection already hosts a room")
	ErrRoomCodeExhausted = errors.New("could not generate a free room code")
	ErrModeDisabled      = errors.New("matchmaking mode is disabled")
	ErrWrongMode         = errors.New("request is not available in this matchmaking mode")
	ErrConnectionClosed  = errors.New("connection is closed")
	ErrNotInGame         = errors.New("no active game for connection")
)
