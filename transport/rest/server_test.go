package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-relay/internal/repository"
	"github.com/rocketscienceinc/tictactoe-relay/internal/usecase"
)

type fixedLive usecase.Snapshot

func (that fixedLive) Snapshot() usecase.Snapshot {
	return usecase.Snapshot(that)
}

type fixedTotals struct {
	totals repository.Totals
	err    error
}

func (that fixedTotals) Totals(context.Context) (repository.Totals, error) {
	return that.totals, that.err
}

func newTestServer(live fixedLive, totals fixedTotals) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(logger, []string{"https://play.example.com"}, NewPingHandler(), NewStatsHandler(logger, live, totals)).Handler()
}

func TestServer_Ping(t *testing.T) {
	// Given: the HTTP handler
	handler := newTestServer(fixedLive{}, fixedTotals{})

	// When: /ping is requested
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	// Then: it answers pong
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_Stats(t *testing.T) {
	t.Run("Live counters and totals", func(t *testing.T) {
		// Given: some live state and stored totals
		handler := newTestServer(
			fixedLive{WaitingRooms: 2, WaitingPlayers: 1, ActiveSessions: 3},
			fixedTotals{totals: repository.Totals{SessionsStarted: 10, WinsX: 4, WinsO: 3, Draws: 2, Abandoned: 1}},
		)

		// When: /stats is requested
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		// Then: both parts are in the body
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"live": {"waiting_rooms": 2, "waiting_players": 1, "active_sessions": 3},
			"totals": {"sessions_started": 10, "wins_x": 4, "wins_o": 3, "draws": 2, "abandoned": 1}
		}`, rec.Body.String())
	})

	t.Run("Store failure is a 500", func(t *testing.T) {
		handler := newTestServer(fixedLive{}, fixedTotals{err: errors.New("redis down")})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("Disabled store reports zeros", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		handler := New(logger, []string{"*"}, NewPingHandler(), NewStatsHandler(logger, fixedLive{}, repository.NopStats{})).Handler()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

		var body StatsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, StatsResponse{}, body)
	})
}

func TestServer_CORS(t *testing.T) {
	handler := newTestServer(fixedLive{}, fixedTotals{})

	t.Run("Allowed origin gets the header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://play.example.com")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "https://play.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Other origin does not", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
