package simulator

import (
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/form"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/upstream"
)

var (
	simSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simulator_predictions_received_total",
		Help: "Submissões de predição aceitas pelo simulador",
	})
	simScoringFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simulator_scoring_failures_total",
		Help: "Falhas injetadas no cálculo de retorno estimado",
	})
)

// Server simula o backend remoto de fantasy-cricket inteiro em memória:
// catálogo, usuários, predições e o serviço de score.
type Server struct {
	log   *zap.Logger
	clock func() time.Time

	// FailRate é a fração de chamadas de score que falham de propósito,
	// exercitando o fallback 2x do cliente.
	FailRate float64

	// SubmitFailRate é a fração de submissões recusadas, exercitando o
	// retry manual do estado Confirming.
	SubmitFailRate float64

	mu          sync.Mutex
	users       map[string]storedUser
	predictions []ownedPrediction
	nextPredID  int64
}

type ownedPrediction struct {
	username string
	pred     upstream.Prediction
}

type storedUser struct {
	user     upstream.User
	password string
	reg      upstream.RegisterRequest
}

func NewServer(log *zap.Logger) *Server {
	s := &Server{
		log:            log,
		clock:          time.Now,
		FailRate:       0.2,
		SubmitFailRate: 0.05,
		users:          make(map[string]storedUser),
		nextPredID:     1,
	}
	// usuário demo pra subir o ambiente sem registro
	s.users["alice"] = storedUser{
		user:     upstream.User{ID: 1, Username: "alice", Email: "alice@example.com", FullName: "Alice Demo"},
		password: "s3cret",
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/get-all-matches", s.getMatches)
	r.Get("/api/get-all-teams", s.getTeams)
	r.Get("/api/get-all-players", s.getPlayers)
	r.Get("/api/player-stats/by-player-id/{id}", s.getPlayerStats)
	r.Post("/api/predictions/submit", s.submitPrediction)
	r.Get("/api/predictions/user/{username}", s.getUserPredictions)
	r.Post("/api/users/login", s.login)
	r.Post("/api/users/register", s.register)
	r.Get("/api/users/profile/{username}", s.profile)
	r.Post("/api/users/validate-notifications/{id}", s.validateNotifications)
	r.Post("/api/chat", s.chat)
	r.Post("/calculate-potential-winnings", s.calculateWinnings)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) getMatches(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, matchCatalog(s.clock()))
}

func (s *Server) getTeams(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, teamCatalog)
}

func (s *Server) getPlayers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, playerCatalog)
}

func (s *Server) getPlayerStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid player id", http.StatusBadRequest)
		return
	}
	if st, ok := statsCatalog[id]; ok {
		writeJSON(w, http.StatusOK, st)
		return
	}
	// jogador sem histórico curado ganha números derivados do id, estáveis
	writeJSON(w, http.StatusOK, upstream.PlayerStats{
		Matches:    int(50 + id%150),
		Runs:       int(800 + id*13%4000),
		Average:    22 + float64(id%20),
		StrikeRate: 110 + float64(id%45),
		Fours:      int(60 + id%300),
		Sixes:      int(20 + id%150),
		Fifties:    int(id % 30),
		Hundreds:   int(id % 5),
	})
}

func (s *Server) submitPrediction(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if rand.Float64() < s.SubmitFailRate {
		http.Error(w, "submission rejected", http.StatusServiceUnavailable)
		return
	}

	var sub form.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if sub.Username == "" || sub.PlayerName == "" || sub.BetAmount <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	pred := upstream.Prediction{
		ID:             s.nextPredID,
		MatchID:        sub.MatchID,
		PlayerName:     sub.PlayerName,
		RunsPredicted:  sub.Runs,
		BallsPredicted: sub.Balls,
		FoursPredicted: sub.Fours,
		SixesPredicted: sub.Sixes,
		BetAmount:      sub.BetAmount,
		CreatedAt:      s.clock().UTC().Format(time.RFC3339),
	}
	s.nextPredID++
	s.predictions = append(s.predictions, ownedPrediction{username: sub.Username, pred: pred})
	s.mu.Unlock()

	simSubmissions.Inc()
	s.log.Info("prediction stored",
		zap.String("username", sub.Username),
		zap.Int64("matchId", sub.MatchID),
		zap.String("player", sub.PlayerName))
	writeJSON(w, http.StatusOK, map[string]string{"status": "SUBMITTED"})
}

func (s *Server) getUserPredictions(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	s.mu.Lock()
	out := make([]upstream.Prediction, 0)
	for _, p := range s.predictions {
		if p.username == username {
			out = append(out, p.pred)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

// login recebe credenciais em query params, corpo vazio
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	password := r.URL.Query().Get("password")

	s.mu.Lock()
	stored, ok := s.users[username]
	s.mu.Unlock()

	if !ok || stored.password != password {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, stored.user)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req upstream.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.PasswordHash == "" {
		http.Error(w, "username and password required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Username]; exists {
		http.Error(w, "username taken", http.StatusConflict)
		return
	}
	u := upstream.User{
		ID:       int64(len(s.users) + 1),
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	}
	s.users[req.Username] = storedUser{user: u, password: req.PasswordHash, reg: req}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	s.mu.Lock()
	stored, ok := s.users[username]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stored.user)
}

// validateNotifications revalida as notificações pendentes do usuário,
// disparado pela tela de perfil.
func (s *Server) validateNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	found := false
	for _, stored := range s.users {
		if stored.user.ID == id {
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "VALIDATED"})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	reply := chatReplies[len(req.Message)%len(chatReplies)]
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

type winningsRequest struct {
	PlayerID   string  `json:"player_id"`
	BetAmount  float64 `json:"bet_amount"`
	Prediction struct {
		Runs  form.Count `json:"runs"`
		Balls form.Count `json:"balls"`
		Fours form.Count `json:"fours"`
		Sixes form.Count `json:"sixes"`
	} `json:"prediction"`
}

// calculateWinnings aplica um multiplicador crescente com a ousadia do
// forecast. Uma fração das chamadas falha de propósito (FailRate).
func (s *Server) calculateWinnings(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if rand.Float64() < s.FailRate {
		simScoringFailures.Inc()
		http.Error(w, "scoring temporarily unavailable", http.StatusServiceUnavailable)
		return
	}

	var req winningsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.BetAmount <= 0 {
		http.Error(w, "bet_amount must be positive", http.StatusBadRequest)
		return
	}

	mult := 1.5
	mult += countOrZero(req.Prediction.Runs) / 50
	mult += countOrZero(req.Prediction.Fours) * 0.05
	mult += countOrZero(req.Prediction.Sixes) * 0.1
	if mult > 12 {
		mult = 12
	}

	writeJSON(w, http.StatusOK, map[string]float64{
		"estimated_return": math.Round(req.BetAmount*mult*100) / 100,
	})
}

func countOrZero(c form.Count) float64 {
	if c.Missing() {
		return 0
	}
	return float64(c)
}
