package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-relay/internal/repository"
	"github.com/rocketscienceinc/tictactoe-relay/internal/usecase"
)

type liveState interface {
	Snapshot() usecase.Snapshot
}

type totalsReader interface {
	Totals(ctx context.Context) (repository.Totals, error)
}

type StatsResponse struct {
	Live   usecase.Snapshot  `json:"live"`
	Totals repository.Totals `json:"totals"`
}

type StatsHandler interface {
	StatsHandler(w http.ResponseWriter, r *http.Request)
}

type statsHandler struct {
	logger *slog.Logger
	live   liveState
	totals totalsReader
}

func NewStatsHandler(logger *slog.Logger, live liveState, totals totalsReader) StatsHandler {
	return &statsHandler{
		logger: logger.With("component", "stats_handler"),
		live:   live,
		totals: totals,
	}
}

// StatsHandler - live counters from memory plus totals from the stats store.
func (that *statsHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "StatsHandler")

	totals, err := that.totals.Totals(r.Context())
	if err != nil {
		log.Error("failed to get totals", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(StatsResponse{Live: that.live.Snapshot(), Totals: totals}); err != nil {
		log.Error("failed to encode stats", "error", err)
	}
}
