package main

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	analytics "github.com/radieske/cricket-predict-poc/internal/analytics-worker"
	"github.com/radieske/cricket-predict-poc/internal/shared/cache"
	"github.com/radieske/cricket-predict-poc/internal/shared/config"
	"github.com/radieske/cricket-predict-poc/internal/shared/kafka"
	"github.com/radieske/cricket-predict-poc/internal/shared/logger"
	"github.com/radieske/cricket-predict-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// Redis guarda os agregados de engajamento
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka consumer: eventos prediction_placed
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicPredictionPlaced, "prediction-analytics")
	defer reader.Close()

	var dlqWriter *kafkago.Writer
	if cfg.TopicPredictionPlacedDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPredictionPlacedDLQ)
		defer dlqWriter.Close()
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	log.Info("prediction-analytics-worker started",
		zap.String("consume", cfg.TopicPredictionPlaced),
		zap.String("dlq", cfg.TopicPredictionPlacedDLQ),
	)

	c := &analytics.Consumer{
		Log:    log,
		Source: reader,
		Agg:    analytics.NewAggregator(rdb),
	}
	if dlqWriter != nil {
		c.DLQ = dlqWriter
	}
	c.Run(context.Background())
}
