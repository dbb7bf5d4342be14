package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/service"
)

const shutdownTimeout = 5 * time.Second

type gameManager interface {
	Connect(ctx context.Context, peer service.Peer, mode string) error
	CreateRoom(ctx context.Context, peerID string) (string, error)
	JoinRoom(ctx context.Context, peerID, code string) error
	Move(ctx context.Context, peerID string, index int) error
	Disconnect(ctx context.Context, peerID string)
}

type livenessMonitor interface {
	Register(probe service.Probe)
	Unregister(id string)
}

type Server struct {
	logger  *slog.Logger
	games   gameManager
	monitor livenessMonitor

	matchmaking  config.Matchmaking
	sendBuffer   int
	readLimit    int64
	writeTimeout time.Duration

	cors     *cors.Cors
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, conf *config.Config, games gameManager, monitor livenessMonitor) *Server {
	policy := cors.New(cors.Options{
		AllowedOrigins: conf.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	})

	return &Server{
		logger:  logger.With("component", "websocket"),
		games:   games,
		monitor: monitor,

		matchmaking:  conf.Matchmaking,
		sendBuffer:   conf.Connection.SendBuffer,
		readLimit:    conf.Connection.ReadLimit,
		writeTimeout: conf.Liveness.WriteTimeout,

		cors: policy,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(policy),
		},
	}
}

// checkOrigin - applies the CORS origin list to browsers. Clients that send no
// Origin header are not browsers and are let through.
func checkOrigin(policy *cors.Cors) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if r.Header.Get("Origin") == "" {
			return true
		}
		return policy.OriginAllowed(r)
	}
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Handler - the /ws endpoint. Connections served by it are closed when ctx is done.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return that.cors.Handler(mux)
}

// upgradeToWebSocket - picks the matchmaking mode and upgrades the connection.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	mode := req.URL.Query().Get("mode")
	if mode == "" {
		mode = that.matchmaking.DefaultMode
	}

	if !that.matchmaking.Enabled(mode) {
		log.Debug("rejected disabled mode", "mode", mode)
		http.Error(writer, fmt.Sprintf("matchmaking mode %q is not available", mode), http.StatusBadRequest)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Debug("failed to upgrade connection", "error", err)
		return
	}

	c := newConnection(that.logger, conn, that.sendBuffer, that.writeTimeout)
	go c.writePump()

	c.logger.Info("WebSocket connection established", "mode", mode, "remote", req.RemoteAddr)

	that.handleMessages(ctx, c, mode)
}

// handleMessages - the read loop of one connection. It returns when the client
// goes away, the connection is evicted or ctx is done.
func (that *Server) handleMessages(ctx context.Context, c *Connection, mode string) {
	log := c.logger.With("method", "handleMessages")

	that.monitor.Register(c)

	defer func() {
		that.monitor.Unregister(c.ID())
		that.games.Disconnect(context.WithoutCancel(ctx), c.ID())
		c.Close()

		log.Info("WebSocket connection closed")
	}()

	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.Done():
		}
	}()

	c.conn.SetReadLimit(that.readLimit)
	c.conn.SetPongHandler(func(string) error {
		c.markAlive()
		return nil
	})

	if err := that.games.Connect(ctx, c, mode); err != nil {
		log.Error("failed to connect player", "error", err)
		that.sendError(c, err)
		c.closeAfterFlush()
		<-c.Done()
		return
	}

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Debug("unexpected close", "error", err)
			}
			return
		}

		c.markAlive()

		if msgType != websocket.TextMessage {
			that.sendError(c, errBinaryFrame)
			continue
		}

		that.handleMessage(ctx, c, data)
	}
}

func (that *Server) handleMessage(ctx context.Context, c *Connection, data []byte) {
	msg, err := entity.DecodeInbound(data)
	if err != nil {
		c.logger.Debug("failed to decode message", "error", err)
		that.sendError(c, err)
		return
	}

	switch req := msg.(type) {
	case entity.CreateRoomRequest:
		err = that.handleCreateRoom(ctx, c)
	case entity.JoinRoomRequest:
		err = that.handleJoinRoom(ctx, c, req)
	case entity.MoveRequest:
		err = that.handleMove(ctx, c, req)
	}

	if err != nil {
		that.sendError(c, err)
	}
}

func (that *Server) handleCreateRoom(ctx context.Context, c *Connection) error {
	if _, err := that.games.CreateRoom(ctx, c.ID()); err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, c *Connection, req entity.JoinRoomRequest) error {
	if err := that.games.JoinRoom(ctx, c.ID(), req.Room); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	return nil
}

func (that *Server) handleMove(ctx context.Context, c *Connection, req entity.MoveRequest) error {
	if err := that.games.Move(ctx, c.ID(), req.Index); err != nil {
		return fmt.Errorf("failed to make move: %w", err)
	}
	return nil
}

// sendError - replies with the client facing text of err. Errors with no
// client facing text are dropped.
func (that *Server) sendError(c *Connection, err error) {
	text, ok := errorText(err)
	if !ok {
		c.logger.Debug("request ignored", "error", err)
		return
	}

	c.logger.Debug("request rejected", "error", err)

	if sendErr := c.Send(entity.NewError(text)); sendErr != nil {
		c.logger.Debug("failed to send error", "error", sendErr)
	}
}
