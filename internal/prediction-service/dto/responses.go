package dto

import "github.com/radieske/cricket-predict-poc/internal/prediction-service/upstream"

type LoginResponse struct {
	SessionID string        `json:"sessionId"`
	User      upstream.User `json:"user"`
}

type SelectPlayerResponse struct {
	Accepted bool `json:"accepted"` // false quando o lock transformou o clique em no-op
}

type ChatResponse struct {
	Reply string `json:"reply"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
