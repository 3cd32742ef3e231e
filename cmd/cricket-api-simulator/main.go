package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	simulator "github.com/radieske/cricket-predict-poc/internal/cricket-simulator"
	"github.com/radieske/cricket-predict-poc/internal/shared/config"
	"github.com/radieske/cricket-predict-poc/internal/shared/logger"
	"github.com/radieske/cricket-predict-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log := logger.Must(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	sim := simulator.NewServer(log)

	metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error { return nil })

	addr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("cricket api simulator listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, sim.Router()); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
