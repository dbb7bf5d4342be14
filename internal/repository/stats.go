package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
)

const (
	statsKey        = "tictactoe:stats"
	outcomesChannel = "tictactoe:outcomes"

	fieldSessionsStarted = "sessions_started"
	fieldWinsX           = "wins_x"
	fieldWinsO           = "wins_o"
	fieldDraws           = "draws"
	fieldAbandoned       = "abandoned"
)

// Totals are counters aggregated over every finished session.
type Totals struct {
	SessionsStarted int64 `json:"sessions_started"`
	WinsX           int64 `json:"wins_x"`
	WinsO           int64 `json:"wins_o"`
	Draws           int64 `json:"draws"`
	Abandoned       int64 `json:"abandoned"`
}

// StatsRepository keeps aggregate counters in a Redis hash and publishes each
// outcome for whoever listens. No per-game record is stored.
type StatsRepository struct {
	client *redis.Client
}

func NewStatsRepository(client *redis.Client) *StatsRepository {
	return &StatsRepository{
		client: client,
	}
}

func (that *StatsRepository) SessionStarted(ctx context.Context) error {
	if err := that.client.HIncrBy(ctx, statsKey, fieldSessionsStarted, 1).Err(); err != nil {
		return fmt.Errorf("failed to increment %s: %w", fieldSessionsStarted, err)
	}

	return nil
}

func (that *StatsRepository) SessionFinished(ctx context.Context, outcome *entity.Outcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("could not marshal outcome: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, statsKey, outcomeField(outcome), 1)
		pipe.Publish(ctx, outcomesChannel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	return nil
}

func (that *StatsRepository) Totals(ctx context.Context) (Totals, error) {
	values, err := that.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return Totals{}, fmt.Errorf("failed to get totals: %w", err)
	}

	var totals Totals
	for field, target := range map[string]*int64{
		fieldSessionsStarted: &totals.SessionsStarted,
		fieldWinsX:           &totals.WinsX,
		fieldWinsO:           &totals.WinsO,
		fieldDraws:           &totals.Draws,
		fieldAbandoned:       &totals.Abandoned,
	} {
		raw, ok := values[field]
		if !ok {
			continue
		}

		if *target, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return Totals{}, fmt.Errorf("failed to parse %s: %w", field, err)
		}
	}

	return totals, nil
}

func outcomeField(outcome *entity.Outcome) string {
	switch {
	case outcome.Result == entity.ResultDraw:
		return fieldDraws
	case outcome.Result == entity.ResultAbandoned:
		return fieldAbandoned
	case outcome.Winner == entity.PlayerO:
		return fieldWinsO
	default:
		return fieldWinsX
	}
}

// NopStats is used when no stats store is configured.
type NopStats struct{}

func (NopStats) SessionStarted(context.Context) error {
	return nil
}

func (NopStats) SessionFinished(context.Context, *entity.Outcome) error {
	return nil
}

func (NopStats) Totals(context.Context) (Totals, error) {
	return Totals{}, nil
}
