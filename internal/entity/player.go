package entity

// Player is what the server knows about one connection: an opaque id plus the
// mark and room it got when it was paired.
type Player struct {
	ID   string `json:"id"`
	Mark string `json:"mark,omitempty"`
	Room string `json:"room,omitempty"`
}
