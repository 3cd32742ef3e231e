package form

import (
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
)

// State modela o fluxo do formulário de predição.
// Idle -> Collecting (jogador escolhido) -> Confirming (resumo) -> Idle.
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateConfirming
)

func (s State) String() string {
	switch s {
	case StateCollecting:
		return "collecting"
	case StateConfirming:
		return "confirming"
	default:
		return "idle"
	}
}

// Field identifica um dos quatro campos de contagem do Forecast.
type Field string

const (
	FieldRuns  Field = "runs"
	FieldBalls Field = "balls"
	FieldFours Field = "fours"
	FieldSixes Field = "sixes"
)

var (
	ErrLocked        = errors.New("predictions are locked for this match")
	ErrMissingFields = errors.New("player, match and bet amount are required")
	ErrBadState      = errors.New("operation not valid in current form state")
	ErrUnknownField  = errors.New("unknown forecast field")
	ErrRejected      = errors.New("non-numeric input rejected")
)

// só dígitos, vazio permitido
var digitsOnly = regexp.MustCompile(`^[0-9]*$`)

// Counts guarda os campos de contagem como digitados (strings, vazio = não preenchido).
type Counts struct {
	Runs  string `json:"runs"`
	Balls string `json:"balls"`
	Fours string `json:"fours"`
	Sixes string `json:"sixes"`
}

// Controller é a máquina de estados do formulário de predição de uma sessão.
// Não é concorrente-seguro: o dono (workflow.Session) serializa os eventos.
type Controller struct {
	state  State
	player string
	counts Counts
	stake  string
}

func NewController() *Controller { return &Controller{} }

func (c *Controller) State() State   { return c.state }
func (c *Controller) Player() string { return c.player }
func (c *Controller) Counts() Counts { return c.counts }
func (c *Controller) Stake() string  { return c.stake }

// SelectPlayer abre a coleta para o jogador. Com lock ativo é no-op.
// Trocar de jogador com o formulário já aberto é permitido; em Confirming não.
func (c *Controller) SelectPlayer(name string, locked bool) bool {
	if locked || name == "" || c.state == StateConfirming {
		return false
	}
	c.player = name
	c.state = StateCollecting
	return true
}

// SetCount valida no momento da digitação: entrada não-numérica é rejeitada
// e o valor armazenado permanece inalterado.
func (c *Controller) SetCount(f Field, value string, locked bool) error {
	if locked {
		return ErrLocked
	}
	if c.state != StateCollecting {
		return ErrBadState
	}
	if !digitsOnly.MatchString(value) {
		return ErrRejected
	}
	switch f {
	case FieldRuns:
		c.counts.Runs = value
	case FieldBalls:
		c.counts.Balls = value
	case FieldFours:
		c.counts.Fours = value
	case FieldSixes:
		c.counts.Sixes = value
	default:
		return ErrUnknownField
	}
	return nil
}

// SetStake aplica a mesma regra de dígitos ao valor apostado.
func (c *Controller) SetStake(value string, locked bool) error {
	if locked {
		return ErrLocked
	}
	if c.state != StateCollecting {
		return ErrBadState
	}
	if !digitsOnly.MatchString(value) {
		return ErrRejected
	}
	c.stake = value
	return nil
}

// Submit valida e avança Collecting -> Confirming.
// Falha de validação mantém o estado em Collecting.
func (c *Controller) Submit(hasSelection, locked bool) error {
	if locked {
		return ErrLocked
	}
	if c.state != StateCollecting {
		return ErrBadState
	}
	if c.player == "" || !hasSelection || c.stake == "" {
		return ErrMissingFields
	}
	c.state = StateConfirming
	return nil
}

// Cancel volta Confirming -> Collecting preservando os campos já digitados.
func (c *Controller) Cancel() bool {
	if c.state != StateConfirming {
		return false
	}
	c.state = StateCollecting
	return true
}

// Reset limpa todos os campos e volta para Idle. Usado ao trocar de Selection
// e após uma submissão aceita.
func (c *Controller) Reset() {
	*c = Controller{}
}

// Assemble monta a Submission final. Contagens não preenchidas viram NaN
// (serializado como null); o chamador deve tratar NaN como campo obrigatório
// em aberto.
func (c *Controller) Assemble(username string, matchID int64) Submission {
	stake, _ := strconv.ParseFloat(c.stake, 64)
	return Submission{
		Username:   username,
		MatchID:    matchID,
		PlayerName: c.player,
		Runs:       coerceCount(c.counts.Runs),
		Balls:      coerceCount(c.counts.Balls),
		Fours:      coerceCount(c.counts.Fours),
		Sixes:      coerceCount(c.counts.Sixes),
		BetAmount:  stake,
	}
}

// Count é um campo de contagem já coagido; NaN marca "não preenchido" e
// serializa como null no payload.
type Count float64

func (c Count) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(c)) {
		return []byte("null"), nil
	}
	return json.Marshal(int64(c))
}

func (c *Count) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = Count(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Count(v)
	return nil
}

// Missing informa se o campo ficou sem preenchimento.
func (c Count) Missing() bool { return math.IsNaN(float64(c)) }

// Submission é o registro imutável enviado ao backend remoto, uma vez por
// confirmação.
type Submission struct {
	Username   string  `json:"username"`
	MatchID    int64   `json:"matchId"`
	PlayerName string  `json:"playerName"`
	Runs       Count   `json:"runsPredicted"`
	Balls      Count   `json:"ballsPredicted"`
	Fours      Count   `json:"foursPredicted"`
	Sixes      Count   `json:"sixesPredicted"`
	BetAmount  float64 `json:"betAmount"`
}

// MissingCounts lista os campos de contagem em aberto, na ordem do formulário.
func (s Submission) MissingCounts() []string {
	var out []string
	for _, f := range []struct {
		name string
		c    Count
	}{
		{"runs", s.Runs},
		{"balls", s.Balls},
		{"fours", s.Fours},
		{"sixes", s.Sixes},
	} {
		if f.c.Missing() {
			out = append(out, f.name)
		}
	}
	return out
}

func coerceCount(s string) Count {
	if s == "" {
		return Count(math.NaN())
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Count(math.NaN())
	}
	return Count(v)
}
