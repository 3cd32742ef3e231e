package events

// PredictionPlaced é publicado após o backend remoto aceitar uma submissão.
// Campos de contagem podem ser -1 quando o usuário não preencheu o campo.
type PredictionPlaced struct {
	PredictionID    string  `json:"prediction_id"`
	Username        string  `json:"username"`
	MatchID         int64   `json:"match_id"`
	PlayerName      string  `json:"player_name"`
	RunsPredicted   int64   `json:"runs_predicted"`
	BallsPredicted  int64   `json:"balls_predicted"`
	FoursPredicted  int64   `json:"fours_predicted"`
	SixesPredicted  int64   `json:"sixes_predicted"`
	BetAmount       float64 `json:"bet_amount"`
	EstimatedReturn float64 `json:"estimated_return"` // 0 quando não resolvido
	TsUnixMs        int64   `json:"ts_unix_ms"`
}
