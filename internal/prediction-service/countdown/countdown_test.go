package countdown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_LockBoundary(t *testing.T) {
	now := time.Date(2025, 4, 1, 19, 0, 0, 0, time.Local)

	cases := []struct {
		name   string
		until  time.Duration
		locked bool
	}{
		{"2 horas antes", 2 * time.Hour, false},
		{"61s antes", 61 * time.Second, false},
		{"exatamente 60s", 60 * time.Second, true},
		{"55s antes", 55 * time.Second, true},
		{"1s antes", time.Second, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tick := Evaluate(now.Add(tc.until), now)
			assert.Equal(t, tc.locked, tick.Locked)
			assert.False(t, tick.Started)
		})
	}
}

func TestEvaluate_Scenario55Seconds(t *testing.T) {
	start, err := ParseStart("2025-04-01", "19:30:00")
	require.NoError(t, err)

	now := time.Date(2025, 4, 1, 19, 29, 5, 0, time.Local)
	tick := Evaluate(start, now)

	assert.True(t, tick.Locked)
	assert.False(t, tick.Started)
	assert.Equal(t, Remaining{Seconds: 55}, tick.Remaining)
}

func TestEvaluate_Breakdown(t *testing.T) {
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local)
	start := now.Add(26*time.Hour + 3*time.Minute + 4*time.Second)

	tick := Evaluate(start, now)
	assert.Equal(t, Remaining{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}, tick.Remaining)
	assert.Equal(t, "1d 2h 3m 4s", tick.Display)
	assert.False(t, tick.Locked)
}

func TestEvaluate_PastStartIsTerminal(t *testing.T) {
	now := time.Date(2025, 4, 1, 20, 0, 0, 0, time.Local)

	for _, start := range []time.Time{now, now.Add(-time.Hour)} {
		tick := Evaluate(start, now)
		assert.True(t, tick.Started)
		assert.True(t, tick.Locked)
		assert.Equal(t, "Match Started", tick.Display)
		assert.Equal(t, Remaining{}, tick.Remaining)
	}
}

func TestParseStart(t *testing.T) {
	got, err := ParseStart("2025-04-01", "19:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 1, 19, 30, 0, 0, time.Local), got)

	got, err = ParseStart("2025-04-01", "19:30:45")
	require.NoError(t, err)
	assert.Equal(t, 45, got.Second())

	_, err = ParseStart("01/04/2025", "19:30")
	assert.Error(t, err)

	_, err = ParseStart("2025-04-01", "")
	assert.Error(t, err)
}

func TestRun_LockIsMonotonic(t *testing.T) {
	// relógio falso que recua depois de entrar na janela de travamento
	times := []time.Time{
		time.Date(2025, 4, 1, 19, 29, 10, 0, time.Local), // 50s -> trava
		time.Date(2025, 4, 1, 19, 25, 0, 0, time.Local),  // recuo: 5m restantes
		time.Date(2025, 4, 1, 19, 31, 0, 0, time.Local),  // terminal
	}
	idx := 0
	ev := &Evaluator{
		Clock: func() time.Time {
			t := times[idx]
			if idx < len(times)-1 {
				idx++
			}
			return t
		},
		Interval: time.Millisecond,
	}

	start := time.Date(2025, 4, 1, 19, 30, 0, 0, time.Local)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var ticks []Tick
	for tick := range ev.Run(ctx, start) {
		ticks = append(ticks, tick)
	}

	require.GreaterOrEqual(t, len(ticks), 3)
	for i, tick := range ticks {
		assert.True(t, tick.Locked, "tick %d deveria continuar travado", i)
	}
	assert.True(t, ticks[len(ticks)-1].Started)
}

func TestRun_ImmediateTerminalForPastStart(t *testing.T) {
	now := time.Date(2025, 4, 1, 21, 0, 0, 0, time.Local)
	ev := &Evaluator{Clock: func() time.Time { return now }, Interval: time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch := ev.Run(ctx, now.Add(-time.Minute))

	tick, ok := <-ch
	require.True(t, ok)
	assert.True(t, tick.Started)
	assert.True(t, tick.Locked)

	_, ok = <-ch
	assert.False(t, ok, "canal deveria fechar após o tick terminal")
}

func TestRun_CancelReleasesTimer(t *testing.T) {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.Local)
	ev := &Evaluator{Clock: func() time.Time { return now }, Interval: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	ch := ev.Run(ctx, now.Add(time.Hour))

	<-ch
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("canal não fechou após cancelamento")
		}
	}
}
