package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything main needs to wire the service. Optional
// integrations (kafka, redis, tracing, consul) stay disabled when
// their address is left empty.
type Config struct {
	HTTPAddr    string
	ServiceName string

	MongoURI string
	MongoDB  string

	KafkaBrokers []string
	OutboxTopic  string

	RedisAddr string

	OTLPEndpoint string

	ConsulAddr string
}

// Load reads a .env file when present, then the environment.
func Load(log *slog.Logger) Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using environment variables")
	}

	cfg := Config{
		HTTPAddr:     env("HTTP_ADDR", ":4000"),
		ServiceName:  env("SERVICE_NAME", "inventory-order-service"),
		MongoURI:     env("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      env("MONGO_DB", "inventory"),
		OutboxTopic:  env("OUTBOX_TOPIC", "order.events"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
		ConsulAddr:   os.Getenv("CONSUL_ADDR"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
