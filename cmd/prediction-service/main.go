package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/estimator"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/httpapi"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/news"
	kpub "github.com/radieske/cricket-predict-poc/internal/prediction-service/producer"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/session"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/upstream"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/workflow"
	"github.com/radieske/cricket-predict-poc/internal/prediction-service/ws"
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

	// Redis: sessões, cache de partidas
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	// Kafka writer (topic prediction_placed)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPredictionPlaced)
	defer writer.Close()

	// deps
	store := session.NewRedisStore(rdb, cfg.SessionTTL)
	up := upstream.New(cfg.CricketAPIURL, cfg.StatsAPIURL)
	est := estimator.New(cfg.ScoringURL)
	nw := news.New(cfg.NewsAPIURL, cfg.NewsAPIKey)
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicPredictionPlaced)
	hub := ws.NewHub(func(*http.Request) bool { return true })

	mgr := workflow.NewManager(log, up, est, store, publ, hub, workflow.NewMatchCache(rdb), nil)

	api := httpapi.NewServer(log, mgr, up, nw, store, hub)

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})

	addr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("prediction-service listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, api.Router()); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
