package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/dto"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/form"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/news"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/session"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/upstream"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/workflow"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/ws"
)

// Server é a borda HTTP do fluxo de predição: catálogo, sessão/login e as
// operações do workflow de lock-out e submissão.
type Server struct {
	log      *zap.Logger
	mgr      *workflow.Manager
	up       *upstream.Client
	news     *news.Client
	identity session.Provider
	hub      *ws.Hub
	clock    func() time.Time
}

func NewServer(log *zap.Logger, mgr *workflow.Manager, up *upstream.Client, nw *news.Client, id session.Provider, hub *ws.Hub) *Server {
	return &Server{log: log, mgr: mgr, up: up, news: nw, identity: id, hub: hub, clock: time.Now}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/api/matches", s.listMatches)           // partidas em abas hoje/futuras/passadas
	r.Get("/api/teams", s.listTeams)               // catálogo de times
	r.Get("/api/players", s.listPlayers)           // jogadores agrupados por time
	r.Get("/api/player-stats/{id}", s.playerStats) // estatísticas de carreira
	r.Get("/api/news", s.sportsNews)               // manchetes esportivas
	r.Post("/api/chat", s.chat)                    // assistente
	r.Get("/api/predictions", s.userPredictions)   // histórico do usuário logado

	r.Post("/api/login", s.login)
	r.Post("/api/register", s.register)
	r.Post("/api/logout", s.logout)
	r.Get("/api/profile", s.profile)
	r.Post("/api/profile/validate-notifications", s.validateNotifications)

	r.Route("/api/session", func(r chi.Router) {
		r.Post("/select", s.selectMatch)
		r.Post("/clear", s.clearSelection)
		r.Get("/state", s.sessionState)
		r.Get("/teams", s.availableTeams)
		r.Post("/player", s.selectPlayer)
		r.Post("/forecast", s.setForecast)
		r.Post("/stake", s.setStake)
		r.Post("/submit", s.submitForm)
		r.Post("/confirm", s.confirm)
		r.Post("/cancel", s.cancel)
	})

	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWS)
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}

// sessionID lê o identificador de sessão do cliente. Vazio é tratado pelo
// handler de cada rota.
func sessionID(r *http.Request) string {
	return r.Header.Get("X-Session-Id")
}

var errSessionRequired = errors.New("X-Session-Id header required")

// workflowErr mapeia os erros do workflow para status HTTP.
func workflowErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, form.ErrLocked):
		writeErr(w, http.StatusConflict, err)
	case errors.Is(err, form.ErrBadState):
		writeErr(w, http.StatusConflict, err)
	case errors.Is(err, form.ErrMissingFields),
		errors.Is(err, form.ErrRejected),
		errors.Is(err, form.ErrUnknownField),
		errors.Is(err, workflow.ErrNoSelection):
		writeErr(w, http.StatusBadRequest, err)
	case errors.Is(err, workflow.ErrMatchNotFound):
		writeErr(w, http.StatusNotFound, err)
	case errors.Is(err, workflow.ErrNotLoggedIn):
		writeErr(w, http.StatusUnauthorized, err)
	default:
		writeErr(w, http.StatusBadGateway, err)
	}
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	ms, err := s.mgr.Matches(r.Context())
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, workflow.PartitionMatches(ms, s.clock()))
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.up.Teams(r.Context())
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.up.Players(r.Context())
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, upstream.GroupPlayersByTeam(players))
}

func (s *Server) playerStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("invalid player id"))
		return
	}
	stats, err := s.up.PlayerStats(r.Context(), id)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) sportsNews(w http.ResponseWriter, r *http.Request) {
	articles, err := s.news.Sports(r.Context())
	if err != nil {
		// notícia é periférica: degrada pra lista vazia em vez de erro
		s.log.Warn("news fetch failed", zap.Error(err))
		writeJSON(w, http.StatusOK, []news.Article{})
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("bad json"))
		return
	}
	reply, err := s.up.Chat(r.Context(), req.Message)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ChatResponse{Reply: reply})
}

func (s *Server) userPredictions(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeErr(w, http.StatusBadRequest, errSessionRequired)
		return
	}
	user, ok, err := s.identity.Current(r.Context(), sid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeErr(w, http.StatusUnauthorized, workflow.ErrNotLoggedIn)
		return
	}
	preds, err := s.up.UserPredictions(r.Context(), user.Username)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

// login autentica no backend remoto e grava o registro de usuário como sessão
// local. Sem X-Session-Id um identificador novo é gerado e devolvido.
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("bad json"))
		return
	}

	user, err := s.up.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, err)
		return
	}

	sid := sessionID(r)
	if sid == "" {
		sid = uuid.NewString()
	}
	if err := s.identity.SignIn(r.Context(), sid, user); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.LoginResponse{SessionID: sid, User: user})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req upstream.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("bad json"))
		return
	}
	user, err := s.up.Register(r.Context(), req)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeErr(w, http.StatusBadRequest, errSessionRequired)
		return
	}
	if err := s.identity.SignOut(r.Context(), sid); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeErr(w, http.StatusBadRequest, errSessionRequired)
		return
	}
	user, ok, err := s.identity.Current(r.Context(), sid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeErr(w, http.StatusUnauthorized, workflow.ErrNotLoggedIn)
		return
	}
	full, err := s.up.Profile(r.Context(), user.Username)
	if err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, full)
}

// validateNotifications repassa ao colaborador a checagem de notificações
// do usuário logado, disparada pela tela de perfil.
func (s *Server) validateNotifications(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		writeErr(w, http.StatusBadRequest, errSessionRequired)
		return
	}
	user, ok, err := s.identity.Current(r.Context(), sid)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		writeErr(w, http.StatusUnauthorized, workflow.ErrNotLoggedIn)
		return
	}
	if err := s.up.ValidateNotifications(r.Context(), user.ID); err != nil {
		writeErr(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// session retorna o workflow da sessão do request, exigindo o header.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*workflow.Session, bool) {
	sid := sessionID(r)
	if sid == "" {
		writeErr(w, http.StatusBadRequest, errSessionRequired)
		return nil, false
	}
	return s.mgr.Session(sid), true
}

func (s *Server) selectMatch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req dto.SelectMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("bad json"))
		return
	}
	if err := sess.Select(r.Context(), req.MatchID); err != nil {
		workflowErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) clearSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sessionState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) availableTeams(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	teams, err := sess.AvailableTeams(r.Context())
	if err != nil {
		workflowErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) selectPlayer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req dto.SelectPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("bad json"))
		return
	}
	accepted, err := sess.SelectPlayer(req.PlayerName)
	if err != nil {
		workflowErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SelectPlayerResponse{Accepted: accepted})
}

func (s *Server) setForecast(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req dto.ForecastFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("bad json"))
		return
	}
	if err := sess.SetCount(form.Field(req.Field), req.Value); err != nil {
		workflowErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setStake(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req dto.StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, errors.New("bad json"))
		return
	}
	if err := sess.SetStake(req.Value); err != nil {
		workflowErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.SubmitForm(r.Context()); err != nil {
		workflowErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) confirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Confirm(r.Context()); err != nil {
		workflowErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.State())
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Cancel()
	writeJSON(w, http.StatusOK, sess.State())
}
