package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/upstream"
)

// MatchCache guarda a lista ordenada de partidas no Redis por um TTL curto,
// poupando o catálogo remoto de uma busca por sessão.
type MatchCache struct{ R *redis.Client }

func NewMatchCache(r *redis.Client) *MatchCache { return &MatchCache{R: r} }

const keyMatches = "cricket:matches"

func (c *MatchCache) Get(ctx context.Context) ([]upstream.Match, bool) {
	b, err := c.R.Get(ctx, keyMatches).Bytes()
	if err != nil {
		return nil, false
	}
	var ms []upstream.Match
	if err := json.Unmarshal(b, &ms); err != nil {
		return nil, false
	}
	return ms, true
}

func (c *MatchCache) Set(ctx context.Context, ms []upstream.Match, ttl time.Duration) error {
	b, _ := json.Marshal(ms)
	return c.R.Set(ctx, keyMatches, b, ttl).Err()
}
