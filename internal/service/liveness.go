package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Probe is a connection the liveness monitor can check.
type Probe interface {
	ID() string
	// Responded reports whether the connection answered since the previous
	// call and clears the flag.
	Responded() bool
	Ping() error
	Close()
}

// LivenessMonitor pings every registered connection once per interval and
// closes those that did not answer the previous ping.
type LivenessMonitor struct {
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	probes map[string]Probe
}

func NewLivenessMonitor(logger *slog.Logger, interval time.Duration) *LivenessMonitor {
	return &LivenessMonitor{
		logger:   logger.With("component", "liveness"),
		interval: interval,
		probes:   make(map[string]Probe),
	}
}

func (that *LivenessMonitor) Register(probe Probe) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.probes[probe.ID()] = probe
}

func (that *LivenessMonitor) Unregister(id string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.probes, id)
}

func (that *LivenessMonitor) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.probes)
}

// Run - sweeps every interval until ctx is done.
func (that *LivenessMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	that.logger.Info("liveness monitor started", "interval", that.interval)

	for {
		select {
		case <-ctx.Done():
			that.logger.Info("liveness monitor stopped")
			return
		case <-ticker.C:
			if evicted := that.Sweep(); evicted > 0 {
				that.logger.Info("evicted unresponsive connections", "count", evicted)
			}
		}
	}
}

// Sweep - runs one probe round and returns how many connections were closed.
func (that *LivenessMonitor) Sweep() int {
	that.mu.Lock()
	probes := make([]Probe, 0, len(that.probes))
	for _, probe := range that.probes {
		probes = append(probes, probe)
	}
	that.mu.Unlock()

	evicted := 0
	for _, probe := range probes {
		if !probe.Responded() {
			that.evict(probe, "no answer to previous ping")
			evicted++
			continue
		}

		if err := probe.Ping(); err != nil {
			that.logger.Debug("failed to ping", "connID", probe.ID(), "error", err)
			that.evict(probe, "ping failed")
			evicted++
		}
	}

	return evicted
}

func (that *LivenessMonitor) evict(probe Probe, reason string) {
	that.Unregister(probe.ID())
	probe.Close()

	that.logger.Info("connection evicted", "connID", probe.ID(), "reason", reason)
}
