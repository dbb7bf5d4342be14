package service

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

const (
	StateActive    = "active"
	StateWon       = "won"
	StateDrawn     = "drawn"
	StateAbandoned = "abandoned"
)

// Session is one match between two peers. All state changes happen under mu,
// so moves from the two peers are applied one at a time.
type Session struct {
	id     string
	room   string
	logger *slog.Logger

	mu    sync.Mutex
	game  *entity.Game
	peers map[string]Peer   // mark -> peer
	marks map[string]string // peer id -> mark
	state string
}

// NewSession - binds x and o to a fresh board. Nothing is sent until Start.
func NewSession(logger *slog.Logger, id, room string, x, o Peer) *Session {
	return &Session{
		id:     id,
		room:   room,
		logger: logger.With("component", "session", "sessionID", id),
		game:   entity.NewGame(id),
		peers: map[string]Peer{
			entity.PlayerX: x,
			entity.PlayerO: o,
		},
		marks: map[string]string{
			x.ID(): entity.PlayerX,
			o.ID(): entity.PlayerO,
		},
		state: StateActive,
	}
}

func (that *Session) ID() string {
	return that.id
}

func (that *Session) Room() string {
	return that.room
}

func (that *Session) State() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}

func (that *Session) IsActive() bool {
	return that.State() == StateActive
}

// Game - returns a copy of the board state.
func (that *Session) Game() entity.Game {
	that.mu.Lock()
	defer that.mu.Unlock()

	return *that.game
}

// Mark - returns the symbol bound to peerID.
func (that *Session) Mark(peerID string) (string, bool) {
	mark, ok := that.marks[peerID]
	return mark, ok
}

// Start - tells every peer its own symbol and announces the first turn.
func (that *Session) Start() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, mark := range []string{entity.PlayerX, entity.PlayerO} {
		that.send(that.peers[mark], entity.NewStart(mark))
	}

	that.broadcast(entity.NewTurnStatus(that.game.Turn))

	that.logger.Info("session started", "room", that.room)
}

// Move - applies a move from peerID. A non-nil outcome means this move ended the game.
func (that *Session) Move(peerID string, index int) (*entity.Outcome, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch that.state {
	case StateActive:
	case StateAbandoned:
		return nil, fmt.Errorf("%w: %w", apperror.ErrGameFinished, apperror.ErrPeerDisconnected)
	default:
		return nil, apperror.ErrGameFinished
	}

	mark, ok := that.marks[peerID]
	if !ok {
		return nil, apperror.ErrNotInGame
	}

	if err := that.game.MakeTurn(mark, index); err != nil {
		return nil, fmt.Errorf("failed to make turn: %w", err)
	}

	that.broadcast(entity.NewMove(index, mark))

	if !that.game.IsFinished() {
		that.broadcast(entity.NewTurnStatus(that.game.Turn))
		return nil, nil
	}

	that.broadcast(entity.NewGameOver(that.game.Winner))

	outcome := that.outcome()
	if that.game.IsTie() {
		that.state = StateDrawn
		outcome.Result = entity.ResultDraw
	} else {
		that.state = StateWon
		outcome.Result = entity.ResultWin
		outcome.Winner = that.game.Winner
	}

	that.logger.Info("session finished", "result", outcome.Result, "winner", outcome.Winner, "moves", outcome.Moves)

	return outcome, nil
}

// Leave - handles peerID's connection going away. The remaining peer wins and
// is told so exactly once; nil is returned if the session was already over.
func (that *Session) Leave(peerID string) *entity.Outcome {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != StateActive {
		return nil
	}

	mark, ok := that.marks[peerID]
	if !ok {
		return nil
	}

	that.state = StateAbandoned

	remaining := entity.Opponent(mark)
	that.send(that.peers[remaining], entity.NewOpponentLeft())

	outcome := that.outcome()
	outcome.Result = entity.ResultAbandoned
	outcome.Winner = remaining

	that.logger.Info("session abandoned", "left", mark, "winner", remaining)

	return outcome
}

func (that *Session) outcome() *entity.Outcome {
	return &entity.Outcome{
		SessionID: that.id,
		Room:      that.room,
		Moves:     that.game.Moves,
		EndedAt:   time.Now().UTC(),
	}
}

func (that *Session) broadcast(msg entity.Outbound) {
	for _, mark := range []string{entity.PlayerX, entity.PlayerO} {
		that.send(that.peers[mark], msg)
	}
}

func (that *Session) send(peer Peer, msg entity.Outbound) {
	if err := peer.Send(msg); err != nil {
		that.logger.Debug("failed to send message", "peerID", peer.ID(), "error", err)
	}
}
