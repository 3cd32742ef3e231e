package workflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/countdown"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/estimator"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/form"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/session"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/upstream"
	"github.com/radieske/cricket-predict-poc/pkg/contracts/events"
)

var (
	ErrNoSelection   = errors.New("no match selected")
	ErrMatchNotFound = errors.New("match not found")
	ErrNotLoggedIn   = errors.New("user not logged in")
)

var (
	predictionsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_placed_total",
		Help: "Submissões aceitas pelo backend remoto",
	})
	staleDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "prediction_stale_responses_discarded_total",
		Help: "Respostas de estimativa descartadas por troca de Selection",
	})
)

// mapa de nomes curtos do label da partida ("SRH vs MI") para nomes completos
var teamNameMap = map[string]string{
	"MI":   "Mumbai Indians",
	"CSK":  "Chennai Super Kings",
	"RCB":  "Royal Challengers Bangalore",
	"DC":   "Delhi Capitals",
	"KKR":  "Kolkata Knight Riders",
	"RR":   "Rajasthan Royals",
	"SRH":  "Sunrisers Hyderabad",
	"PBKS": "Punjab Kings",
	"LSG":  "Lucknow Super Giants",
	"GT":   "Gujarat Titans",
}

// Publisher publica o evento de predição aceita (Kafka em produção).
type Publisher interface {
	PublishPredictionPlaced(ctx context.Context, e events.PredictionPlaced) error
}

// TickSink recebe os ticks do countdown para repasse à camada de renderização
// (hub WebSocket em produção).
type TickSink interface {
	BroadcastTick(sessionID string, t countdown.Tick)
}

// Manager mantém um Session (workflow) por sessão de usuário.
type Manager struct {
	log      *zap.Logger
	up       *upstream.Client
	est      *estimator.Client
	identity session.Provider
	publ     Publisher
	sink     TickSink
	cache    *MatchCache
	eval     *countdown.Evaluator

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(log *zap.Logger, up *upstream.Client, est *estimator.Client, id session.Provider, publ Publisher, sink TickSink, cache *MatchCache, eval *countdown.Evaluator) *Manager {
	if eval == nil {
		eval = countdown.New()
	}
	return &Manager{
		log:      log,
		up:       up,
		est:      est,
		identity: id,
		publ:     publ,
		sink:     sink,
		cache:    cache,
		eval:     eval,
		sessions: make(map[string]*Session),
	}
}

// Session devolve (ou cria) o workflow da sessão.
func (m *Manager) Session(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s := &Session{id: id, m: m, ctrl: form.NewController()}
	m.sessions[id] = s
	return s
}

// Matches retorna a lista ordenada de partidas, preferencialmente do cache.
func (m *Manager) Matches(ctx context.Context) ([]upstream.Match, error) {
	if m.cache != nil {
		if ms, ok := m.cache.Get(ctx); ok {
			return ms, nil
		}
	}

	ms, err := m.up.Matches(ctx)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		_ = m.cache.Set(ctx, ms, 30*time.Second) // melhor esforço
	}
	return ms, nil
}

// MatchLists é a partição hoje/futuras/passadas exibida em abas.
type MatchLists struct {
	Today    []upstream.Match `json:"today"`
	Upcoming []upstream.Match `json:"upcoming"`
	Past     []upstream.Match `json:"past"`
}

// PartitionMatches separa por comparação da data ISO com a data local atual.
func PartitionMatches(ms []upstream.Match, now time.Time) MatchLists {
	today := now.Format("2006-01-02")
	var out MatchLists
	for _, m := range ms {
		switch {
		case m.Date == today:
			out.Today = append(out.Today, m)
		case m.Date > today:
			out.Upcoming = append(out.Upcoming, m)
		default:
			out.Past = append(out.Past, m)
		}
	}
	return out
}

// Session é o workflow de lock-out e submissão de uma sessão de usuário.
// Todos os eventos (tick, digitação, clique, retorno de rede) são
// serializados pelo mutex: o workflow se comporta como um único contexto
// de execução.
type Session struct {
	id string
	m  *Manager

	mu              sync.Mutex
	selection       *upstream.Match
	epoch           int
	ctrl            *form.Controller
	lastTick        countdown.Tick
	hasTick         bool
	cancelCountdown context.CancelFunc

	estimate         float64
	estimateResolved bool
}

// reset descarta countdown, Selection, formulário e estimativa.
// Chamar apenas com s.mu em posse.
func (s *Session) reset() {
	if s.cancelCountdown != nil {
		s.cancelCountdown()
		s.cancelCountdown = nil
	}
	s.epoch++
	s.selection = nil
	s.lastTick = countdown.Tick{}
	s.hasTick = false
	s.ctrl.Reset()
	s.estimate = 0
	s.estimateResolved = false
}

func (s *Session) locked() bool { return s.hasTick && s.lastTick.Locked }

// Select troca a Selection ativa: zera forecast, stake e lock e inicia
// exatamente um countdown novo para a partida.
func (s *Session) Select(ctx context.Context, matchID int64) error {
	ms, err := s.m.Matches(ctx)
	if err != nil {
		return fmt.Errorf("fetch matches: %w", err)
	}

	var match *upstream.Match
	for i := range ms {
		if ms[i].ID == matchID {
			match = &ms[i]
			break
		}
	}
	if match == nil {
		return ErrMatchNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.selection = match
	epoch := s.epoch

	start, err := countdown.ParseStart(match.Date, match.Time)
	if err != nil {
		// início ilegível: trava imediatamente em vez de produzir duração negativa
		s.m.log.Warn("unparseable match start, locking",
			zap.Int64("matchId", match.ID), zap.Error(err))
		s.lastTick = countdown.Tick{Started: true, Locked: true, Display: "Match Started"}
		s.hasTick = true
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancelCountdown = cancel
	ticks := s.m.eval.Run(runCtx, start)

	go func() {
		for tick := range ticks {
			s.mu.Lock()
			if s.epoch != epoch {
				// timer de uma Selection anterior; nunca pode mutar o estado atual
				s.mu.Unlock()
				return
			}
			s.lastTick = tick
			s.hasTick = true
			s.mu.Unlock()

			if s.m.sink != nil {
				s.m.sink.BroadcastTick(s.id, tick)
			}
		}
	}()

	return nil
}

// Clear desfaz a Selection (navegação de volta).
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// AvailableTeams deriva os dois times do label da partida e filtra o catálogo
// de times. Falha da busca degrada para picker vazio.
func (s *Session) AvailableTeams(ctx context.Context) ([]upstream.Team, error) {
	s.mu.Lock()
	sel := s.selection
	s.mu.Unlock()
	if sel == nil {
		return nil, ErrNoSelection
	}

	teams, err := s.m.up.Teams(ctx)
	if err != nil {
		s.m.log.Warn("teams fetch failed, empty picker", zap.Error(err))
		return []upstream.Team{}, nil
	}

	full := make(map[string]bool)
	for _, short := range strings.Split(sel.Label, " vs ") {
		name := teamNameMap[short]
		if name == "" {
			name = short
		}
		full[name] = true
	}

	var out []upstream.Team
	for _, t := range teams {
		if full[t.TeamName] {
			out = append(out, t)
		}
	}
	return out, nil
}

// SelectPlayer abre o formulário de forecast. Com lock ativo é no-op
// (retorna false), como no comportamento observado.
func (s *Session) SelectPlayer(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return false, ErrNoSelection
	}
	return s.ctrl.SelectPlayer(name, s.locked()), nil
}

// SetCount aplica um dígito ao campo; rejeição acontece na digitação.
func (s *Session) SetCount(f form.Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.SetCount(f, value, s.locked())
}

func (s *Session) SetStake(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.SetStake(value, s.locked())
}

// SubmitForm valida e entra em Confirming; a cada entrada em Confirming a
// estimativa anterior é descartada e uma nova é pedida.
func (s *Session) SubmitForm(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ctrl.Submit(s.selection != nil, s.locked()); err != nil {
		return err
	}
	s.requestEstimate()
	return nil
}

// requestEstimate limpa o valor anterior e dispara a consulta fora do lock.
// A resposta só é aplicada se a Selection ainda for a mesma (epoch).
// Chamar apenas com s.mu em posse.
func (s *Session) requestEstimate() {
	s.estimate = 0
	s.estimateResolved = false

	// sem jogador, runs ou stake não há consulta
	if s.ctrl.Player() == "" || s.ctrl.Counts().Runs == "" || s.ctrl.Stake() == "" {
		return
	}

	epoch := s.epoch
	player := s.ctrl.Player()
	sub := s.ctrl.Assemble("", 0) // identidade irrelevante pra estimativa

	go func() {
		// a consulta sobrevive ao request que a disparou; o timeout do
		// cliente de score limita a espera
		val := s.m.est.Estimate(context.Background(), player, sub)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.epoch != epoch {
			staleDiscarded.Inc()
			return
		}
		s.estimate = val
		s.estimateResolved = true
	}()
}

// Estimate retorna o valor corrente e se já resolveu.
func (s *Session) Estimate() (value, multiplier float64, resolved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.estimateResolved {
		return 0, 0, false
	}
	stake, _ := parseStake(s.ctrl.Stake())
	return s.estimate, estimator.Multiplier(s.estimate, stake), true
}

// Cancel volta da confirmação pro formulário sem perder campos.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Cancel()
}

// Confirm fecha o fluxo: exige identidade resolvida, envia a Submission uma
// única vez e, aceita, publica o evento e reseta o workflow. Falha do backend
// mantém Confirming para retry manual; nenhum retry automático.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl.State() != form.StateConfirming {
		return form.ErrBadState
	}
	if s.selection == nil {
		return ErrNoSelection
	}

	user, ok, err := s.m.identity.Current(ctx, s.id)
	if err != nil {
		return fmt.Errorf("resolve identity: %w", err)
	}
	if !ok || user.Username == "" {
		return ErrNotLoggedIn
	}

	sub := s.ctrl.Assemble(user.Username, s.selection.ID)
	if gaps := sub.MissingCounts(); len(gaps) > 0 {
		s.m.log.Warn("submission with unfilled counts",
			zap.String("username", user.Username),
			zap.Strings("fields", gaps))
	}

	if err := s.m.up.SubmitPrediction(ctx, sub); err != nil {
		return fmt.Errorf("submit prediction: %w", err)
	}

	if s.m.publ != nil {
		_ = s.m.publ.PublishPredictionPlaced(ctx, events.PredictionPlaced{
			PredictionID:    uuid.NewString(),
			Username:        sub.Username,
			MatchID:         sub.MatchID,
			PlayerName:      sub.PlayerName,
			RunsPredicted:   countValue(sub.Runs),
			BallsPredicted:  countValue(sub.Balls),
			FoursPredicted:  countValue(sub.Fours),
			SixesPredicted:  countValue(sub.Sixes),
			BetAmount:       sub.BetAmount,
			EstimatedReturn: s.estimate,
			TsUnixMs:        time.Now().UnixMilli(),
		})
	}
	predictionsPlaced.Inc()

	s.reset()
	return nil
}

// Snapshot é o estado somente-leitura exposto à camada de renderização.
type Snapshot struct {
	Selection      *upstream.Match `json:"selection,omitempty"`
	FormState      string          `json:"formState"`
	Player         string          `json:"player,omitempty"`
	Counts         form.Counts     `json:"counts"`
	Stake          string          `json:"stake"`
	Locked         bool            `json:"locked"`
	Countdown      *countdown.Tick `json:"countdown,omitempty"`
	CountdownLabel string          `json:"countdownLabel,omitempty"`

	EstimatedReturn *float64 `json:"estimatedReturn,omitempty"`
	Multiplier      string   `json:"multiplier,omitempty"`
}

func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		FormState: s.ctrl.State().String(),
		Player:    s.ctrl.Player(),
		Counts:    s.ctrl.Counts(),
		Stake:     s.ctrl.Stake(),
		Locked:    s.locked(),
	}
	if s.selection != nil {
		sel := *s.selection
		snap.Selection = &sel
	}
	if s.hasTick {
		tick := s.lastTick
		snap.Countdown = &tick
		switch {
		case tick.Started:
			snap.CountdownLabel = "Match Started"
		case tick.Locked:
			snap.CountdownLabel = "Predictions Locked"
		default:
			snap.CountdownLabel = tick.Display
		}
	}
	if s.estimateResolved {
		v := s.estimate
		snap.EstimatedReturn = &v
		stake, _ := parseStake(s.ctrl.Stake())
		snap.Multiplier = fmt.Sprintf("%.1fx", estimator.Multiplier(v, stake))
	}
	return snap
}

func countValue(c form.Count) int64 {
	if c.Missing() {
		return -1
	}
	return int64(c)
}

// Mesma coerção usada em form.Assemble: ParseFloat rejeita sufixos inválidos.
func parseStake(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
