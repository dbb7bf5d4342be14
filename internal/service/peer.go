package service

import "github.com/rocketscienceinc/tictactoe-relay/internal/entity"

// Peer is one connected client as seen by matchmaking and sessions.
// Send must not block: implementations queue the message or fail.
type Peer interface {
	ID() string
	Send(msg entity.Outbound) error
}
