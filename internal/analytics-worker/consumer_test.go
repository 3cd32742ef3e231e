package analytics

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/cricket-predict-poc/pkg/contracts/events"
)

// fakeReader entrega as mensagens da fila e depois bloqueia até o cancel
type fakeReader struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	f.mu.Lock()
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, io.EOF
}

type fakeDLQ struct {
	mu   sync.Mutex
	msgs []kafkago.Message
}

func (f *fakeDLQ) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeDLQ) all() []kafkago.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafkago.Message(nil), f.msgs...)
}

type fakeApplier struct {
	mu     sync.Mutex
	events []events.PredictionPlaced
}

func (f *fakeApplier) Apply(_ context.Context, e events.PredictionPlaced) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeApplier) all() []events.PredictionPlaced {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.PredictionPlaced(nil), f.events...)
}

func TestConsumerAppliesDecodedEvents(t *testing.T) {
	good, err := json.Marshal(events.PredictionPlaced{
		PredictionID: "p-1", Username: "alice", MatchID: 7, PlayerName: "V Kohli",
		RunsPredicted: 45, BallsPredicted: -1, BetAmount: 250, TsUnixMs: 1700000000000,
	})
	require.NoError(t, err)

	reader := &fakeReader{msgs: []kafkago.Message{
		{Key: []byte("alice"), Value: good},
	}}
	applier := &fakeApplier{}
	c := &Consumer{Log: zap.NewNop(), Source: reader, Agg: applier, RetryDelay: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { c.Run(ctx); close(done) }()

	require.Eventually(t, func() bool { return len(applier.all()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	got := applier.all()[0]
	assert.Equal(t, "p-1", got.PredictionID)
	assert.Equal(t, int64(-1), got.BallsPredicted, "campo não preenchido preserva o sentinela")
	assert.Equal(t, 250.0, got.BetAmount)
}

func TestConsumerRoutesMalformedToDLQ(t *testing.T) {
	good, err := json.Marshal(events.PredictionPlaced{PredictionID: "p-2", Username: "bob", MatchID: 8})
	require.NoError(t, err)

	reader := &fakeReader{msgs: []kafkago.Message{
		{Key: []byte("x"), Value: []byte("{not json")},
		{Key: []byte("bob"), Value: good},
	}}
	applier := &fakeApplier{}
	dlq := &fakeDLQ{}
	c := &Consumer{Log: zap.NewNop(), Source: reader, DLQ: dlq, Agg: applier, RetryDelay: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { c.Run(ctx); close(done) }()

	// a mensagem quebrada vai pra DLQ e a boa ainda é processada
	require.Eventually(t, func() bool {
		return len(dlq.all()) == 1 && len(applier.all()) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []byte("{not json"), dlq.all()[0].Value)
	assert.Equal(t, "p-2", applier.all()[0].PredictionID)
}
