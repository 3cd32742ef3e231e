package estimator

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/form"
)

// FallbackMultiplier é aplicado sobre o stake quando o serviço de score falha.
const FallbackMultiplier = 2.0

var fallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "prediction_estimate_fallback_total",
	Help: "Estimativas resolvidas pelo fallback 2x por falha do serviço de score",
})

// Client consulta o serviço externo de cálculo de retorno estimado.
type Client struct {
	URL  string
	HTTP *http.Client
}

func New(url string) *Client {
	return &Client{
		URL:  url,
		HTTP: &http.Client{Timeout: 2 * time.Second},
	}
}

type request struct {
	PlayerID   string     `json:"player_id"`
	BetAmount  float64    `json:"bet_amount"`
	Prediction prediction `json:"prediction"`
}

type prediction struct {
	Runs  form.Count `json:"runs"`
	Balls form.Count `json:"balls"`
	Fours form.Count `json:"fours"`
	Sixes form.Count `json:"sixes"`
}

type response struct {
	EstimatedReturn float64 `json:"estimated_return"`
}

// Estimate pede o retorno estimado para (stake, forecast). Qualquer falha
// (rede, status não-2xx, payload inválido) cai no fallback stake*2; o
// chamador não distingue fallback de resposta genuína além do multiplicador.
func (c *Client) Estimate(ctx context.Context, playerID string, sub form.Submission) float64 {
	body, _ := json.Marshal(request{
		PlayerID:  playerID,
		BetAmount: sub.BetAmount,
		Prediction: prediction{
			Runs:  sub.Runs,
			Balls: sub.Balls,
			Fours: sub.Fours,
			Sixes: sub.Sixes,
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return c.fallback(sub.BetAmount)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return c.fallback(sub.BetAmount)
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return c.fallback(sub.BetAmount)
	}

	var out response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return c.fallback(sub.BetAmount)
	}
	if out.EstimatedReturn <= 0 {
		return c.fallback(sub.BetAmount)
	}
	return out.EstimatedReturn
}

func (c *Client) fallback(stake float64) float64 {
	fallbacks.Inc()
	return stake * FallbackMultiplier
}

// Multiplier deriva o multiplicador exibido na confirmação.
func Multiplier(estimate, stake float64) float64 {
	if stake == 0 {
		return 0
	}
	return estimate / stake
}
