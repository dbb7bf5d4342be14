package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

// Connection is one client socket. Outgoing frames go through a bounded buffer
// drained by writePump, so Send never blocks the caller; a client too slow to
// keep up is disconnected.
type Connection struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	send         chan []byte
	writeTimeout time.Duration

	alive     atomic.Bool
	done      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once

	draining  chan struct{}
	drainOnce sync.Once
}

func newConnection(logger *slog.Logger, conn *websocket.Conn, sendBuffer int, writeTimeout time.Duration) *Connection {
	id := uuid.NewString()

	c := &Connection{
		id:     id,
		conn:   conn,
		logger: logger.With("connID", id),

		send:         make(chan []byte, sendBuffer),
		writeTimeout: writeTimeout,

		done:     make(chan struct{}),
		draining: make(chan struct{}),
	}
	c.alive.Store(true)

	return c
}

func (that *Connection) ID() string {
	return that.id
}

// Send - queues msg for delivery.
func (that *Connection) Send(msg entity.Outbound) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	select {
	case <-that.done:
		return apperror.ErrConnectionClosed
	default:
	}

	select {
	case that.send <- data:
		return nil
	case <-that.done:
		return apperror.ErrConnectionClosed
	default:
		that.logger.Warn("send buffer is full, closing connection")
		// The pump may be stuck in a write holding the socket, so the close
		// frame is left to another goroutine.
		that.stop()
		go that.teardown()
		return fmt.Errorf("%w: send buffer is full", apperror.ErrConnectionClosed)
	}
}

// Responded - true if the client sent anything since the previous call.
func (that *Connection) Responded() bool {
	return that.alive.Swap(false)
}

func (that *Connection) markAlive() {
	that.alive.Store(true)
}

func (that *Connection) Ping() error {
	deadline := time.Now().Add(that.writeTimeout)
	if err := that.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		return fmt.Errorf("failed to write ping: %w", err)
	}
	return nil
}

// Close - closes the socket once. The blocked read in the server loop fails,
// which runs the disconnect path.
func (that *Connection) Close() {
	that.stop()
	that.teardown()
}

// closeAfterFlush - lets writePump deliver what is already queued, then closes.
func (that *Connection) closeAfterFlush() {
	that.drainOnce.Do(func() {
		close(that.draining)
	})
}

// stop - marks the connection closed. Send fails from here on.
func (that *Connection) stop() {
	that.stopOnce.Do(func() {
		close(that.done)
	})
}

func (that *Connection) teardown() {
	that.closeOnce.Do(func() {
		deadline := time.Now().Add(that.writeTimeout)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = that.conn.WriteControl(websocket.CloseMessage, msg, deadline)

		if err := that.conn.Close(); err != nil {
			that.logger.Debug("failed to close connection", "error", err)
		}
	})
}

func (that *Connection) Done() <-chan struct{} {
	return that.done
}

// writePump - delivers queued frames until the connection is closed.
func (that *Connection) writePump() {
	for {
		select {
		case data := <-that.send:
			if err := that.write(data); err != nil {
				that.logger.Debug("failed to write message", "error", err)
				that.Close()
				return
			}
		case <-that.draining:
			that.flush()
			that.Close()
			return
		case <-that.done:
			return
		}
	}
}

func (that *Connection) flush() {
	for {
		select {
		case data := <-that.send:
			if err := that.write(data); err != nil {
				that.logger.Debug("failed to flush message", "error", err)
				return
			}
		default:
			return
		}
	}
}

func (that *Connection) write(data []byte) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(that.writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}
