package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
)

const (
	RoomCodeLength   = 5
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	defaultCodeAttempts = 32
)

// CodeGenerator produces candidate room codes.
type CodeGenerator func() (string, error)

// RoomRegistry maps room codes to hosts waiting for an opponent. Once a room is
// joined its code stays sealed until Release, so late joiners get ErrRoomFull
// and the code is not handed out again while its game runs.
type RoomRegistry struct {
	mu sync.Mutex

	waiting  map[string]Peer   // code -> host
	hosts    map[string]string // host id -> code
	sealed   map[string]struct{}
	generate CodeGenerator
	attempts int
}

func NewRoomRegistry(generate CodeGenerator, attempts int) *RoomRegistry {
	if generate == nil {
		generate = GenerateRoomCode
	}

	if attempts <= 0 {
		attempts = defaultCodeAttempts
	}

	return &RoomRegistry{
		waiting:  make(map[string]Peer),
		hosts:    make(map[string]string),
		sealed:   make(map[string]struct{}),
		generate: generate,
		attempts: attempts,
	}
}

// Create - registers host under a fresh code.
func (that *RoomRegistry) Create(host Peer) (string, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if code, ok := that.hosts[host.ID()]; ok {
		return "", fmt.Errorf("%w: %s", apperror.ErrAlreadyHosting, code)
	}

	for range that.attempts {
		code, err := that.generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate room code: %w", err)
		}

		if that.taken(code) {
			continue
		}

		that.waiting[code] = host
		that.hosts[host.ID()] = code

		return code, nil
	}

	return "", apperror.ErrRoomCodeExhausted
}

// Join - hands the waiting host of code over to guest. The waiting entry is
// removed and the code sealed in the same critical section, so of two racing
// joiners exactly one wins.
func (that *RoomRegistry) Join(guest Peer, code string) (Peer, string, error) {
	code, ok := NormalizeRoomCode(code)
	if !ok {
		return nil, "", apperror.ErrRoomNotFound
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, full := that.sealed[code]; full {
		return nil, code, apperror.ErrRoomFull
	}

	host, found := that.waiting[code]
	if !found {
		return nil, code, apperror.ErrRoomNotFound
	}

	if host.ID() == guest.ID() {
		return nil, code, apperror.ErrRoomFull
	}

	delete(that.waiting, code)
	delete(that.hosts, host.ID())
	that.sealed[code] = struct{}{}

	return host, code, nil
}

// DropHost - removes the waiting room hosted by peerID, if any.
func (that *RoomRegistry) DropHost(peerID string) (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	code, ok := that.hosts[peerID]
	if !ok {
		return "", false
	}

	delete(that.hosts, peerID)
	delete(that.waiting, code)

	return code, true
}

// Release - makes a sealed code available again.
func (that *RoomRegistry) Release(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sealed, code)
}

// Waiting - number of rooms with a host and no guest.
func (that *RoomRegistry) Waiting() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.waiting)
}

func (that *RoomRegistry) taken(code string) bool {
	if _, ok := that.waiting[code]; ok {
		return true
	}

	_, ok := that.sealed[code]
	return ok
}

// NormalizeRoomCode - trims and upper-cases code, reporting whether the result is a well formed code.
func NormalizeRoomCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != RoomCodeLength {
		return code, false
	}

	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return code, false
		}
	}

	return code, true
}

// GenerateRoomCode - returns RoomCodeLength random letters A-Z.
func GenerateRoomCode() (string, error) {
	var sb strings.Builder
	sb.Grow(RoomCodeLength)

	limit := big.NewInt(int64(len(roomCodeAlphabet)))
	for range RoomCodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random number: %w", err)
		}
		sb.WriteByte(roomCodeAlphabet[n.Int64()])
	}

	return sb.String(), nil
}
