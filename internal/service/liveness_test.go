package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProbe struct {
	id        string
	responded atomic.Bool
	pings     atomic.Int32
	closed    atomic.Bool
	pingErr   error
	// answers makes every ping look answered before the next sweep.
	answers bool
}

func newFakeProbe(id string, answers bool) *fakeProbe {
	probe := &fakeProbe{id: id, answers: answers}
	probe.responded.Store(true)
	return probe
}

func (that *fakeProbe) ID() string {
	return that.id
}

func (that *fakeProbe) Responded() bool {
	return that.responded.Swap(false)
}

func (that *fakeProbe) Ping() error {
	that.pings.Add(1)
	if that.pingErr != nil {
		return that.pingErr
	}
	if that.answers {
		that.responded.Store(true)
	}
	return nil
}

func (that *fakeProbe) Close() {
	that.closed.Store(true)
}

func TestLivenessMonitor_Sweep(t *testing.T) {
	t.Run("Silent connection is closed on the second sweep", func(t *testing.T) {
		// Given: one healthy and one silent connection
		monitor := NewLivenessMonitor(discardLogger, time.Hour)
		healthy, silent := newFakeProbe("healthy", true), newFakeProbe("silent", false)
		monitor.Register(healthy)
		monitor.Register(silent)

		// When: the first sweep pings everybody
		evicted := monitor.Sweep()

		// Then: nobody is closed yet
		assert.Equal(t, 0, evicted)
		assert.False(t, silent.closed.Load())
		assert.Equal(t, int32(1), silent.pings.Load())

		// When: the second sweep finds the silent one did not answer
		evicted = monitor.Sweep()

		// Then: only the silent connection is closed and unregistered
		assert.Equal(t, 1, evicted)
		assert.True(t, silent.closed.Load())
		assert.False(t, healthy.closed.Load())
		assert.Equal(t, int32(2), healthy.pings.Load())
		assert.Equal(t, 1, monitor.Len())
	})

	t.Run("Ping failure closes the connection", func(t *testing.T) {
		monitor := NewLivenessMonitor(discardLogger, time.Hour)
		broken := newFakeProbe("broken", true)
		broken.pingErr = errors.New("broken pipe")
		monitor.Register(broken)

		evicted := monitor.Sweep()

		assert.Equal(t, 1, evicted)
		assert.True(t, broken.closed.Load())
		assert.Equal(t, 0, monitor.Len())
	})

	t.Run("Unregistered connection is not probed", func(t *testing.T) {
		monitor := NewLivenessMonitor(discardLogger, time.Hour)
		probe := newFakeProbe("gone", false)
		monitor.Register(probe)
		monitor.Unregister(probe.ID())

		monitor.Sweep()
		monitor.Sweep()

		assert.Equal(t, int32(0), probe.pings.Load())
		assert.False(t, probe.closed.Load())
	})
}

func TestLivenessMonitor_Run(t *testing.T) {
	// Given: a monitor with a short interval and a silent connection
	monitor := NewLivenessMonitor(discardLogger, 5*time.Millisecond)
	silent := newFakeProbe("silent", false)
	monitor.Register(silent)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx)
		close(done)
	}()

	// Then: the connection is eventually evicted and Run stops with the context
	require.Eventually(t, silent.closed.Load, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}
