package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Kafka  KafkaConfig
	Redis  RedisConfig
	Perf   PerfConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers       []string
	TradeTopic    string
	PositionTopic string
	GroupID       string
	Enabled       bool
}

// RedisConfig holds the market data cache configuration. An empty Addr
// selects the in-memory price store.
type RedisConfig struct {
	Addr string
}

// PerfConfig holds the replay harness knobs.
type PerfConfig struct {
	Trades     int
	Instrument string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Kafka: KafkaConfig{
			Brokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TradeTopic:    getEnv("KAFKA_TRADE_TOPIC", "trade-events"),
			PositionTopic: getEnv("KAFKA_POSITION_TOPIC", "position-updates"),
			GroupID:       getEnv("KAFKA_GROUP_ID", "position-service"),
			Enabled:       getEnv("KAFKA_ENABLED", "false") == "true",
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", ""),
		},
		Perf: PerfConfig{
			Trades:     getEnvInt("PERF_TRADES", 1000000),
			Instrument: getEnv("PERF_INSTRUMENT", "AAPL"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
