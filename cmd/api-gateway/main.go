package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"go.uber.org/zap"

	"github.com/radieske/cricket-predict-poc/internal/shared/config"
	"github.com/radieske/cricket-predict-poc/internal/shared/logger"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

// Gateway único na frente do prediction-service e do simulador, reproduzindo
// o split de hosts que o cliente web usava (API principal + API de stats).
func main() {
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	predictionURL := os.Getenv("PREDICTION_URL")
	if predictionURL == "" {
		predictionURL = "http://localhost:8080"
	}
	statsURL := os.Getenv("STATS_URL")
	if statsURL == "" {
		statsURL = "http://localhost:8081"
	}
	prediction := rp(predictionURL)
	stats := rp(statsURL)

	mux := http.NewServeMux()

	// stats de jogadores vêm do host secundário (ex.: /api/player-stats/* -> simulador)
	mux.Handle("/api/player-stats/", stats)

	// todo o resto da API e o WebSocket de ticks -> prediction-service
	mux.Handle("/api/", prediction)
	mux.Handle("/ws", prediction)

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway", zap.Error(err))
	}
}
