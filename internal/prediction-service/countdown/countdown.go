package countdown

import (
	"context"
	"fmt"
	"time"
)

// LockWindow é a antecedência em que as predições travam antes do início da partida.
const LockWindow = 60 * time.Second

// Remaining é o tempo até o início da partida quebrado em componentes inteiros.
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Tick é o estado derivado emitido a cada segundo para a Selection ativa.
// Locked é monotônico: uma vez true, nunca volta a false para a mesma Selection.
type Tick struct {
	Remaining Remaining `json:"remaining"`
	Started   bool      `json:"started"`
	Locked    bool      `json:"locked"`
	Display   string    `json:"display"`
}

// startLayouts aceita horário com e sem segundos ("19:30" e "19:30:00").
var startLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// ParseStart combina a data ISO e o horário da partida num instante único,
// no fuso local.
func ParseStart(date, hhmm string) (time.Time, error) {
	combined := date + "T" + hhmm
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, combined, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid match start %q", combined)
}

// Evaluate deriva o Tick de um instante de início e do relógio atual.
// Início no passado (ou exatamente agora) resulta em estado terminal travado;
// nunca são produzidas durações negativas.
func Evaluate(start, now time.Time) Tick {
	diff := start.Sub(now)
	if diff <= 0 {
		return Tick{Started: true, Locked: true, Display: "Match Started"}
	}

	rem := Remaining{
		Days:    int(diff / (24 * time.Hour)),
		Hours:   int(diff % (24 * time.Hour) / time.Hour),
		Minutes: int(diff % time.Hour / time.Minute),
		Seconds: int(diff % time.Minute / time.Second),
	}

	t := Tick{
		Remaining: rem,
		Locked:    diff <= LockWindow,
		Display:   fmt.Sprintf("%dd %dh %dm %ds", rem.Days, rem.Hours, rem.Minutes, rem.Seconds),
	}
	return t
}

// Evaluator produz um Tick por segundo para uma Selection.
// Clock e Interval são injetáveis para os testes.
type Evaluator struct {
	Clock    func() time.Time
	Interval time.Duration
}

func New() *Evaluator {
	return &Evaluator{Clock: time.Now, Interval: time.Second}
}

// Run emite um Tick imediato e depois um por intervalo até o estado terminal
// ou o cancelamento do contexto. O canal é fechado nos dois casos; cancelar o
// contexto libera o timer quando a Selection muda ou é descartada.
// O travamento é monotônico mesmo se o relógio recuar.
func (e *Evaluator) Run(ctx context.Context, start time.Time) <-chan Tick {
	out := make(chan Tick, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(e.Interval)
		defer ticker.Stop()

		locked := false
		emit := func() (terminal bool) {
			t := Evaluate(start, e.Clock())
			if locked {
				t.Locked = true
			}
			locked = t.Locked

			select {
			case out <- t:
			case <-ctx.Done():
				return true
			}
			return t.Started
		}

		if emit() {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if emit() {
					return
				}
			}
		}
	}()

	return out
}
