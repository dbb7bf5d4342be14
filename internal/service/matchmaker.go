package service

import "sync"

// Matchmaker pairs connections first come, first served. At most one
// connection waits at a time.
type Matchmaker struct {
	mu      sync.Mutex
	waiting Peer
}

func NewMatchmaker() *Matchmaker {
	return &Matchmaker{}
}

// Enqueue - parks peer when nobody waits, otherwise returns the waiting peer as its opponent.
func (that *Matchmaker) Enqueue(peer Peer) (Peer, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.waiting == nil || that.waiting.ID() == peer.ID() {
		that.waiting = peer
		return nil, false
	}

	opponent := that.waiting
	that.waiting = nil

	return opponent, true
}

// Remove - clears the slot if peerID holds it.
func (that *Matchmaker) Remove(peerID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.waiting == nil || that.waiting.ID() != peerID {
		return false
	}

	that.waiting = nil

	return true
}

// Waiting - reports whether a connection is parked.
func (that *Matchmaker) Waiting() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.waiting != nil
}
