package service

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-relay/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakePeer struct {
	id string

	mu       sync.Mutex
	messages []entity.Outbound
	closed   bool
}

func newFakePeer(id string) *fakePeer {
	return &fakePeer{id: id}
}

func (that *fakePeer) ID() string {
	return that.id
}

func (that *fakePeer) Send(msg entity.Outbound) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return apperror.ErrConnectionClosed
	}

	that.messages = append(that.messages, msg)
	return nil
}

func (that *fakePeer) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
}

func (that *fakePeer) Messages() []entity.Outbound {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]entity.Outbound(nil), that.messages...)
}

func (that *fakePeer) Last() entity.Outbound {
	msgs := that.Messages()
	if len(msgs) == 0 {
		return nil
	}
	return msgs[len(msgs)-1]
}

func (that *fakePeer) Count(msgType string) int {
	n := 0
	for _, msg := range that.Messages() {
		if typeOf(msg) == msgType {
			n++
		}
	}
	return n
}

func typeOf(msg entity.Outbound) string {
	raw, err := json.Marshal(msg)
	if err != nil {
		return ""
	}

	var env struct {
		Type string `json:"type"`
	}
	if err = json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Type
}
