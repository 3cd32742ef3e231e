package dto

type SelectMatchRequest struct {
	MatchID int64 `json:"matchId"`
}

type SelectPlayerRequest struct {
	PlayerName string `json:"playerName"`
}

type ForecastFieldRequest struct {
	Field string `json:"field"` // runs | balls | fours | sixes
	Value string `json:"value"`
}

type StakeRequest struct {
	Value string `json:"value"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChatRequest struct {
	Message string `json:"message"`
}
