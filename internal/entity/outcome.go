package entity

import "time"

const (
	ResultWin       = "win"
	ResultDraw      = "draw"
	ResultAbandoned = "abandoned"
)

// Outcome describes how a session ended.
type Outcome struct {
	SessionID string    `json:"session_id"`
	Room      string    `json:"room,omitempty"`
	Result    string    `json:"result"`
	Winner    string    `json:"winner,omitempty"`
	Moves     int       `json:"moves"`
	EndedAt   time.Time `json:"ended_at"`
}
