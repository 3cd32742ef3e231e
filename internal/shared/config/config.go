package config

import (
	"os"
	"time"

	ctopics "github.com/radieske/cricket-predict-poc/pkg/contracts/topics"
)

// Config centraliza variáveis de ambiente e parâmetros de execução dos serviços
// Inclui conexões, tópicos, URLs externas e portas
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string // ex: "prediction-service", "cricket-api-simulator", ...

	RedisAddr    string
	KafkaBrokers string // "a:9092,b:9092"

	// Tópicos
	TopicPredictionPlaced    string
	TopicPredictionPlacedDLQ string

	// Colaboradores externos
	CricketAPIURL string // backend remoto de partidas/usuários/predições
	StatsAPIURL   string // serviço de estatísticas de jogadores
	ScoringURL    string // serviço de cálculo de retorno estimado
	NewsAPIURL    string
	NewsAPIKey    string

	// Sessão
	SessionTTL time.Duration

	// Portas do serviço atual
	HTTPPort    string // Porta pública (API REST)
	MetricsPort string // Porta exclusiva para /metrics e /healthz
}

// Load carrega variáveis de ambiente e define defaults para cada serviço
// Resolve portas conforme o SERVICE_NAME
func Load() Config {
	svc := getEnv("SERVICE_NAME", "")
	env := getEnv("ENV", "local")

	cfg := Config{
		Env:         env,
		ServiceName: svc,

		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: getEnv("KAFKA_BROKERS", "localhost:9092"),

		TopicPredictionPlaced:    getEnv("KAFKA_TOPIC_PREDICTION_PLACED", ctopics.PredictionPlaced),
		TopicPredictionPlacedDLQ: getEnv("KAFKA_TOPIC_PREDICTION_PLACED_DLQ", ctopics.PredictionPlacedDLQ),

		CricketAPIURL: getEnv("CRICKET_API_URL", "http://localhost:8081"),
		StatsAPIURL:   getEnv("STATS_API_URL", "http://localhost:8081"),
		ScoringURL:    getEnv("SCORING_URL", "http://localhost:8081/calculate-potential-winnings"),
		NewsAPIURL:    getEnv("NEWS_API_URL", "https://newsapi.org/v2/everything"),
		NewsAPIKey:    getEnv("NEWS_API_KEY", ""),

		SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),
	}

	// Define portas padrão para cada serviço
	switch svc {
	case "prediction-service":
		cfg.HTTPPort = getEnv("HTTP_PORT_PREDICTION", "8080")
		cfg.MetricsPort = getEnv("METRICS_PORT_PREDICTION", "9095")
	case "cricket-api-simulator":
		cfg.HTTPPort = getEnv("HTTP_PORT_SIMULATOR", "8081")
		cfg.MetricsPort = getEnv("METRICS_PORT_SIMULATOR", "9094")
	case "prediction-analytics-worker":
		cfg.HTTPPort = getEnv("HTTP_PORT_ANALYTICS", "") // worker não expõe HTTP público
		cfg.MetricsPort = getEnv("METRICS_PORT_ANALYTICS", "9097")
	case "api-gateway":
		cfg.HTTPPort = getEnv("HTTP_PORT_GATEWAY", "8088")
		cfg.MetricsPort = getEnv("METRICS_PORT_GATEWAY", "9096")
	default:
		cfg.HTTPPort = getEnv("HTTP_PORT", "8080")
		cfg.MetricsPort = getEnv("METRICS_PORT", "9095")
	}

	return cfg
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// getDuration interpreta a variável como time.Duration ("30m", "24h")
func getDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
