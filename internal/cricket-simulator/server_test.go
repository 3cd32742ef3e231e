package simulator

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/upstream"
)

func newTestSim(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	s := NewServer(zap.NewNop())
	s.FailRate = 0 // falhas injetadas desligadas nos testes
	s.SubmitFailRate = 0
	return s, s.Router()
}

func get(t *testing.T, h http.Handler, path string, dst any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if dst != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
	}
	return rec.Code
}

func post(t *testing.T, h http.Handler, path string, body, dst any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, &buf))
	if dst != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
	}
	return rec.Code
}

func TestCatalogEndpoints(t *testing.T) {
	_, h := newTestSim(t)

	var matches []upstream.Match
	require.Equal(t, http.StatusOK, get(t, h, "/api/get-all-matches", &matches))
	require.NotEmpty(t, matches)
	for _, m := range matches {
		assert.NotEmpty(t, m.Label)
		_, err := time.Parse("2006-01-02", m.Date)
		assert.NoError(t, err, "data ISO")
		_, err = time.Parse("15:04", m.Time)
		assert.NoError(t, err, "horário HH:MM")
	}

	var teams []upstream.Team
	require.Equal(t, http.StatusOK, get(t, h, "/api/get-all-teams", &teams))
	assert.Len(t, teams, 6)

	var players []upstream.Player
	require.Equal(t, http.StatusOK, get(t, h, "/api/get-all-players", &players))
	for _, p := range players {
		assert.NotZero(t, p.TeamID)
	}
}

func TestSubmitAndListPredictions(t *testing.T) {
	_, h := newTestSim(t)

	code := post(t, h, "/api/predictions/submit", map[string]any{
		"username":       "alice",
		"matchId":        3,
		"playerName":     "A Russell",
		"runsPredicted":  40,
		"ballsPredicted": nil,
		"foursPredicted": 3,
		"sixesPredicted": 4,
		"betAmount":      150,
	}, nil)
	require.Equal(t, http.StatusOK, code)

	var preds []upstream.Prediction
	require.Equal(t, http.StatusOK, get(t, h, "/api/predictions/user/alice", &preds))
	require.Len(t, preds, 1)
	assert.Equal(t, "A Russell", preds[0].PlayerName)
	assert.True(t, preds[0].BallsPredicted.Missing(), "null permanece não preenchido")

	// outro usuário não enxerga
	var other []upstream.Prediction
	require.Equal(t, http.StatusOK, get(t, h, "/api/predictions/user/bob", &other))
	assert.Empty(t, other)
}

func TestSubmitRejectsInvalidPayload(t *testing.T) {
	_, h := newTestSim(t)

	code := post(t, h, "/api/predictions/submit", map[string]any{
		"username": "", "playerName": "X", "betAmount": 10,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLoginAndRegister(t *testing.T) {
	_, h := newTestSim(t)

	var u upstream.User
	require.Equal(t, http.StatusOK, post(t, h, "/api/users/login?username=alice&password=s3cret", nil, &u))
	assert.Equal(t, "alice", u.Username)

	assert.Equal(t, http.StatusUnauthorized, post(t, h, "/api/users/login?username=alice&password=nope", nil, nil))

	require.Equal(t, http.StatusCreated, post(t, h, "/api/users/register", upstream.RegisterRequest{
		Username: "bob", PasswordHash: "h4sh", Email: "bob@x.io", FullName: "Bob B",
	}, nil))
	assert.Equal(t, http.StatusConflict, post(t, h, "/api/users/register", upstream.RegisterRequest{
		Username: "bob", PasswordHash: "h4sh",
	}, nil))

	var profile upstream.User
	require.Equal(t, http.StatusOK, get(t, h, "/api/users/profile/bob", &profile))
	assert.Equal(t, "Bob B", profile.FullName)
}

func TestCalculateWinningsGrowsWithForecast(t *testing.T) {
	_, h := newTestSim(t)

	req := func(runs, sixes any) float64 {
		var resp map[string]float64
		code := post(t, h, "/calculate-potential-winnings", map[string]any{
			"player_id":  "V Kohli",
			"bet_amount": 100,
			"prediction": map[string]any{"runs": runs, "balls": nil, "fours": nil, "sixes": sixes},
		}, &resp)
		require.Equal(t, http.StatusOK, code)
		return resp["estimated_return"]
	}

	modest := req(20, 0)
	bold := req(80, 6)
	assert.Greater(t, bold, modest)
	assert.GreaterOrEqual(t, modest, 100*1.5)
}

func TestCalculateWinningsFailureInjection(t *testing.T) {
	s := NewServer(zap.NewNop())
	s.FailRate = 1 // sempre falha
	h := s.Router()

	code := post(t, h, "/calculate-potential-winnings", map[string]any{
		"player_id": "X", "bet_amount": 100,
	}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestPlayerStatsStable(t *testing.T) {
	_, h := newTestSim(t)

	var a, b upstream.PlayerStats
	require.Equal(t, http.StatusOK, get(t, h, "/api/player-stats/by-player-id/301", &a))
	require.Equal(t, http.StatusOK, get(t, h, "/api/player-stats/by-player-id/301", &b))
	assert.Equal(t, a, b)
	assert.Equal(t, 7263, a.Runs)

	var synth upstream.PlayerStats
	require.Equal(t, http.StatusOK, get(t, h, "/api/player-stats/by-player-id/999", &synth))
	assert.NotZero(t, synth.Matches)
}

func TestChatReplies(t *testing.T) {
	_, h := newTestSim(t)

	var resp map[string]string
	require.Equal(t, http.StatusOK, post(t, h, "/api/chat", map[string]string{"message": "who should I back?"}, &resp))
	assert.NotEmpty(t, resp["reply"])
}

func TestValidateNotifications(t *testing.T) {
	_, h := newTestSim(t)

	var out map[string]string
	require.Equal(t, http.StatusOK, post(t, h, "/api/users/validate-notifications/1", nil, &out))
	assert.Equal(t, "VALIDATED", out["status"])

	assert.Equal(t, http.StatusNotFound, post(t, h, "/api/users/validate-notifications/999", nil, nil))
	assert.Equal(t, http.StatusBadRequest, post(t, h, "/api/users/validate-notifications/abc", nil, nil))
}
