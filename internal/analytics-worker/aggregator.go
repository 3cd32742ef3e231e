package analytics

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/cricket-predict-poc/pkg/contracts/events"
)

// Aggregator mantém contadores de engajamento em Redis a partir dos eventos
// prediction_placed: volume por partida, por usuário e global.
type Aggregator struct {
	R *redis.Client
}

func NewAggregator(r *redis.Client) *Aggregator { return &Aggregator{R: r} }

func keyMatchCount(matchID int64) string { return fmt.Sprintf("analytics:match:%d:count", matchID) }
func keyMatchStaked(matchID int64) string {
	return fmt.Sprintf("analytics:match:%d:staked", matchID)
}
func keyUserCount(username string) string { return "analytics:user:" + username + ":count" }

const keyGlobalStaked = "analytics:global:staked"

func (a *Aggregator) Apply(ctx context.Context, e events.PredictionPlaced) error {
	pipe := a.R.TxPipeline()
	pipe.Incr(ctx, keyMatchCount(e.MatchID))
	pipe.IncrByFloat(ctx, keyMatchStaked(e.MatchID), e.BetAmount)
	pipe.Incr(ctx, keyUserCount(e.Username))
	pipe.IncrByFloat(ctx, keyGlobalStaked, e.BetAmount)
	_, err := pipe.Exec(ctx)
	return err
}

// MatchSummary é o agregado consultável de uma partida.
type MatchSummary struct {
	MatchID     int64   `json:"matchId"`
	Predictions int64   `json:"predictions"`
	TotalStaked float64 `json:"totalStaked"`
}

func (a *Aggregator) MatchSummary(ctx context.Context, matchID int64) (MatchSummary, error) {
	out := MatchSummary{MatchID: matchID}

	count, err := a.R.Get(ctx, keyMatchCount(matchID)).Int64()
	if err != nil && err != redis.Nil {
		return out, err
	}
	out.Predictions = count

	raw, err := a.R.Get(ctx, keyMatchStaked(matchID)).Result()
	if err != nil && err != redis.Nil {
		return out, err
	}
	if raw != "" {
		out.TotalStaked, _ = strconv.ParseFloat(raw, 64)
	}
	return out, nil
}
