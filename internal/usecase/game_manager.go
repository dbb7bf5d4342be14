package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/service"
)

const (
	ModeQuick = "quick"
	ModeRoom  = "room"

	waitingNotice = "Waiting for an opponent..."
)

type statsRecorder interface {
	SessionStarted(ctx context.Context) error
	SessionFinished(ctx context.Context, outcome *entity.Outcome) error
}

// Snapshot is the live state of the game manager.
type Snapshot struct {
	WaitingRooms   int `json:"waiting_rooms"`
	WaitingPlayers int `json:"waiting_players"`
	ActiveSessions int `json:"active_sessions"`
}

type binding struct {
	peer    service.Peer
	mode    string
	player  entity.Player
	session *service.Session
}

// GameManager owns every piece of process-wide game state: the room registry,
// the quick-match slot and the table of connected peers. Pairing and the
// peer table are guarded by mu; a session, once built, serializes its own moves.
type GameManager struct {
	logger *slog.Logger
	stats  statsRecorder

	rooms *service.RoomRegistry
	queue *service.Matchmaker

	mu       sync.Mutex
	peers    map[string]*binding
	sessions map[string]*service.Session
}

func NewGameManager(logger *slog.Logger, stats statsRecorder, rooms *service.RoomRegistry, queue *service.Matchmaker) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),
		stats:  stats,

		rooms: rooms,
		queue: queue,

		peers:    make(map[string]*binding),
		sessions: make(map[string]*service.Session),
	}
}

// Connect - registers peer. In quick mode it is paired with the waiting peer or
// becomes the waiting one; in room mode it waits for create-room or join-room.
func (that *GameManager) Connect(ctx context.Context, peer service.Peer, mode string) error {
	log := that.logger.With("method", "Connect", "connID", peer.ID(), "mode", mode)

	if mode != ModeQuick && mode != ModeRoom {
		return fmt.Errorf("%w: %q", apperror.ErrModeDisabled, mode)
	}

	that.mu.Lock()

	if _, ok := that.peers[peer.ID()]; ok {
		that.mu.Unlock()
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyInGame, peer.ID())
	}

	that.peers[peer.ID()] = &binding{peer: peer, mode: mode, player: entity.Player{ID: peer.ID()}}

	if mode == ModeRoom {
		that.mu.Unlock()
		log.Debug("waiting for room request")
		return nil
	}

	opponent, paired := that.queue.Enqueue(peer)
	if !paired {
		// Queued while mu is held, so the notice always precedes start.
		err := peer.Send(entity.NewWaiting(waitingNotice))
		that.mu.Unlock()

		log.Info("player is waiting for an opponent")
		if err != nil {
			return fmt.Errorf("failed to send waiting notice: %w", err)
		}
		return nil
	}

	session := that.startSession(opponent, peer, "")
	that.mu.Unlock()

	that.recordStart(ctx, session)

	return nil
}

// CreateRoom - opens a waiting room hosted by peerID and returns its code.
func (that *GameManager) CreateRoom(ctx context.Context, peerID string) (string, error) {
	log := that.logger.With("method", "CreateRoom", "connID", peerID)

	that.mu.Lock()
	defer that.mu.Unlock()

	b, err := that.roomBinding(peerID)
	if err != nil {
		return "", err
	}

	code, err := that.rooms.Create(b.peer)
	if err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}

	b.player.Room = code

	if err = b.peer.Send(entity.NewRoomCreated(code)); err != nil {
		log.Debug("failed to send room code", "error", err)
	}

	log.Info("room created", "room", code)

	return code, nil
}

// JoinRoom - pairs peerID with the host waiting in room code and starts their session.
func (that *GameManager) JoinRoom(ctx context.Context, peerID, code string) error {
	log := that.logger.With("method", "JoinRoom", "connID", peerID)

	that.mu.Lock()

	b, err := that.roomBinding(peerID)
	if err != nil {
		that.mu.Unlock()
		return err
	}

	host, code, err := that.rooms.Join(b.peer, code)
	if err != nil {
		that.mu.Unlock()
		return fmt.Errorf("failed to join room %q: %w", code, err)
	}

	// A guest stops hosting its own room once it joins someone else's.
	if own, dropped := that.rooms.DropHost(peerID); dropped {
		log.Debug("dropped own waiting room", "room", own)
	}

	if err = b.peer.Send(entity.NewRoomJoined(code, entity.PlayerO)); err != nil {
		log.Debug("failed to send room joined", "error", err)
	}

	session := that.startSession(host, b.peer, code)
	that.mu.Unlock()

	log.Info("room joined", "room", code)

	that.recordStart(ctx, session)

	return nil
}

// Move - forwards a move to the session of peerID.
func (that *GameManager) Move(ctx context.Context, peerID string, index int) error {
	that.mu.Lock()
	b, ok := that.peers[peerID]
	var session *service.Session
	if ok {
		session = b.session
	}
	that.mu.Unlock()

	if session == nil {
		return apperror.ErrNotInGame
	}

	outcome, err := session.Move(peerID, index)
	if err != nil {
		return fmt.Errorf("failed to move: %w", err)
	}

	if outcome != nil {
		that.finish(ctx, session, outcome)
	}

	return nil
}

// Disconnect - forgets peerID. A waiting room or quick-match slot it held is
// freed; an active session ends with the opponent as winner.
func (that *GameManager) Disconnect(ctx context.Context, peerID string) {
	log := that.logger.With("method", "Disconnect", "connID", peerID)

	that.mu.Lock()

	b, ok := that.peers[peerID]
	if !ok {
		that.mu.Unlock()
		return
	}

	delete(that.peers, peerID)

	if code, dropped := that.rooms.DropHost(peerID); dropped {
		log.Info("waiting room dropped", "room", code)
	}

	if that.queue.Remove(peerID) {
		log.Info("left the waiting slot")
	}

	session := b.session
	that.mu.Unlock()

	if session == nil {
		return
	}

	if outcome := session.Leave(peerID); outcome != nil {
		that.finish(ctx, session, outcome)
	}
}

// Player - what the manager knows about peerID.
func (that *GameManager) Player(peerID string) (entity.Player, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	b, ok := that.peers[peerID]
	if !ok {
		return entity.Player{}, false
	}
	return b.player, true
}

func (that *GameManager) Snapshot() Snapshot {
	that.mu.Lock()
	active := len(that.sessions)
	that.mu.Unlock()

	waitingPlayers := 0
	if that.queue.Waiting() {
		waitingPlayers = 1
	}

	return Snapshot{
		WaitingRooms:   that.rooms.Waiting(),
		WaitingPlayers: waitingPlayers,
		ActiveSessions: active,
	}
}

// roomBinding must be called with mu held.
func (that *GameManager) roomBinding(peerID string) (*binding, error) {
	b, ok := that.peers[peerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrConnectionClosed, peerID)
	}

	if b.mode != ModeRoom {
		return nil, apperror.ErrWrongMode
	}

	if b.session != nil {
		return nil, apperror.ErrAlreadyInGame
	}

	return b, nil
}

// startSession must be called with mu held. x moves first.
func (that *GameManager) startSession(x, o service.Peer, room string) *service.Session {
	session := service.NewSession(that.logger, uuid.NewString(), room, x, o)

	for mark, peer := range map[string]service.Peer{entity.PlayerX: x, entity.PlayerO: o} {
		if b, ok := that.peers[peer.ID()]; ok {
			b.session = session
			b.player.Mark = mark
			b.player.Room = room
		}
	}

	that.sessions[session.ID()] = session
	session.Start()

	return session
}

func (that *GameManager) recordStart(ctx context.Context, session *service.Session) {
	if err := that.stats.SessionStarted(ctx); err != nil {
		that.logger.Warn("failed to record session start", "sessionID", session.ID(), "error", err)
	}
}

func (that *GameManager) finish(ctx context.Context, session *service.Session, outcome *entity.Outcome) {
	that.mu.Lock()
	delete(that.sessions, session.ID())
	that.mu.Unlock()

	if session.Room() != "" {
		that.rooms.Release(session.Room())
	}

	if err := that.stats.SessionFinished(ctx, outcome); err != nil {
		that.logger.Warn("failed to record session outcome", "sessionID", session.ID(), "error", err)
	}
}
