package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	RedisURL string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string

	KafkaBrokers    string
	KafkaStockTopic string

	QueueAdmitBatch    int
	QueueAdmitInterval time.Duration
	QueueEvictInterval time.Duration
	QueueEntryTTL      time.Duration

	CartTTL time.Duration

	OutboxPollInterval time.Duration
	OutboxBatch        int
	OutboxMaxRetries   int
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8087"),
		RedisURL: getEnv("REDIS_URL", "redis://redis:6379"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaStockTopic: getEnv("KAFKA_STOCK_TOPIC", "stock.updated"),

		QueueAdmitBatch:    getEnvInt("QUEUE_ADMIT_BATCH", 10),
		QueueAdmitInterval: getEnvDuration("QUEUE_ADMIT_INTERVAL", time.Second),
		QueueEvictInterval: getEnvDuration("QUEUE_EVICT_INTERVAL", 60*time.Second),
		QueueEntryTTL:      getEnvDuration("QUEUE_ENTRY_TTL", 30*time.Minute),

		CartTTL: getEnvDuration("CART_TTL", 7*24*time.Hour),

		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatch:        getEnvInt("OUTBOX_BATCH", 10),
		OutboxMaxRetries:   getEnvInt("OUTBOX_MAX_RETRIES", 10),
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}
