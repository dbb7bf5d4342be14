package entity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
)

const (
	TypeWaiting      = "waiting"
	TypeRoomCreated  = "room-created"
	TypeRoomJoined   = "room-joined"
	TypeStart        = "start"
	TypeStatus       = "status"
	TypeCreateRoom   = "create-room"
	TypeJoinRoom     = "join-room"
	TypeMove         = "move"
	TypeGameOver     = "gameover"
	TypeOpponentLeft = "opponent-left"
	TypeError        = "error"
)

// Outbound is a message the server sends to a client. Only the types below implement it.
type Outbound interface {
	outbound()
}

type WaitingMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type RoomCreatedMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

type RoomJoinedMessage struct {
	Type   string `json:"type"`
	Room   string `json:"room"`
	Symbol string `json:"symbol"`
}

type StartMessage struct {
	Type   string `json:"type"`
	Player string `json:"player"`
}

type StatusMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type MoveMessage struct {
	Type   string `json:"type"`
	Index  int    `json:"index"`
	Player string `json:"player"`
}

// GameOverMessage carries a nil Winner for a draw, which encodes as "winner":null.
type GameOverMessage struct {
	Type   string  `json:"type"`
	Winner *string `json:"winner"`
}

type OpponentLeftMessage struct {
	Type string `json:"type"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (WaitingMessage) outbound()      {}
func (RoomCreatedMessage) outbound()  {}
func (RoomJoinedMessage) outbound()   {}
func (StartMessage) outbound()        {}
func (StatusMessage) outbound()       {}
func (MoveMessage) outbound()         {}
func (GameOverMessage) outbound()     {}
func (OpponentLeftMessage) outbound() {}
func (ErrorMessage) outbound()        {}

func NewWaiting(text string) WaitingMessage {
	return WaitingMessage{Type: TypeWaiting, Message: text}
}

func NewRoomCreated(room string) RoomCreatedMessage {
	return RoomCreatedMessage{Type: TypeRoomCreated, Room: room}
}

func NewRoomJoined(room, symbol string) RoomJoinedMessage {
	return RoomJoinedMessage{Type: TypeRoomJoined, Room: room, Symbol: symbol}
}

func NewStart(player string) StartMessage {
	return StartMessage{Type: TypeStart, Player: player}
}

func NewStatus(text string) StatusMessage {
	return StatusMessage{Type: TypeStatus, Message: text}
}

// NewTurnStatus - builds the human readable "whose turn" notice.
func NewTurnStatus(mark string) StatusMessage {
	return NewStatus(fmt.Sprintf("Player %s's turn", mark))
}

func NewMove(index int, player string) MoveMessage {
	return MoveMessage{Type: TypeMove, Index: index, Player: player}
}

// NewGameOver - winner "" or PlayerTie means a draw.
func NewGameOver(winner string) GameOverMessage {
	if winner == "" || winner == PlayerTie {
		return GameOverMessage{Type: TypeGameOver}
	}
	return GameOverMessage{Type: TypeGameOver, Winner: &winner}
}

func NewOpponentLeft() OpponentLeftMessage {
	return OpponentLeftMessage{Type: TypeOpponentLeft}
}

func NewError(text string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: text}
}

// Inbound is a message a client sends to the server.
type Inbound interface {
	inbound()
}

type CreateRoomRequest struct{}

type JoinRoomRequest struct {
	Room string
}

type MoveRequest struct {
	Index int
}

func (CreateRoomRequest) inbound() {}
func (JoinRoomRequest) inbound()   {}
func (MoveRequest) inbound()       {}

type envelope struct {
	Type  string          `json:"type"`
	Room  *string         `json:"room"`
	Index json.RawMessage `json:"index"`
}

// DecodeInbound - parses one client frame. Anything that does not match a known
// request shape fails with apperror.ErrMalformedMessage.
func DecodeInbound(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrMalformedMessage, err.Error())
	}

	switch env.Type {
	case TypeCreateRoom:
		return CreateRoomRequest{}, nil
	case TypeJoinRoom:
		if env.Room == nil {
			return nil, fmt.Errorf("%w: room is required", apperror.ErrMalformedMessage)
		}
		return JoinRoomRequest{Room: *env.Room}, nil
	case TypeMove:
		if len(env.Index) == 0 || bytes.Equal(env.Index, []byte("null")) {
			return nil, fmt.Errorf("%w: index is required", apperror.ErrMalformedMessage)
		}

		var index int
		if err := json.Unmarshal(env.Index, &index); err != nil {
			return nil, fmt.Errorf("%w: index must be an integer", apperror.ErrMalformedMessage)
		}
		return MoveRequest{Index: index}, nil
	case "":
		return nil, fmt.Errorf("%w: type is required", apperror.ErrMalformedMessage)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", apperror.ErrMalformedMessage, env.Type)
	}
}
