package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/cricket-predict-poc/pkg/contracts/events"
)

var (
	eventsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_events_consumed_total",
		Help: "Eventos prediction_placed processados",
	})
	eventsMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analytics_events_malformed_total",
		Help: "Mensagens ilegíveis desviadas pra DLQ",
	})
)

// Reader é satisfeito por *kafkago.Reader.
type Reader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
}

// Writer é satisfeito por *kafkago.Writer (DLQ).
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Applier aplica um evento já decodificado aos agregados.
type Applier interface {
	Apply(ctx context.Context, e events.PredictionPlaced) error
}

// Consumer é o loop do worker: lê prediction_placed, decodifica e agrega.
// Mensagem ilegível vai pra DLQ e o loop segue; falha de agregação faz
// backoff simples sem derrubar o processo.
type Consumer struct {
	Log    *zap.Logger
	Source Reader
	DLQ    Writer // opcional
	Agg    Applier

	// Backoff entre erros; os testes encurtam.
	RetryDelay time.Duration
}

func (c *Consumer) Run(ctx context.Context) {
	delay := c.RetryDelay
	if delay == 0 {
		delay = time.Second
	}

	for {
		msg, err := c.Source.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.Log.Warn("kafka read", zap.Error(err))
			time.Sleep(delay)
			continue
		}

		var e events.PredictionPlaced
		if jerr := json.Unmarshal(msg.Value, &e); jerr != nil {
			eventsMalformed.Inc()
			c.Log.Error("unmarshal prediction_placed", zap.Error(jerr))
			if c.DLQ != nil {
				_ = c.DLQ.WriteMessages(ctx, kafkago.Message{Key: msg.Key, Value: msg.Value})
			}
			continue
		}

		if err := c.Agg.Apply(ctx, e); err != nil {
			c.Log.Error("apply aggregate",
				zap.String("prediction_id", e.PredictionID), zap.Error(err))
			time.Sleep(delay / 2)
			continue
		}
		eventsConsumed.Inc()
	}
}
