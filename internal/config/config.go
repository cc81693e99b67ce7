package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	AllowedOrigin    string
	DatabaseURL      string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	StockTTLSeconds  int
	NotifyChannel    string
	CommitMaxRetries int
	LogLevel         string
	LogPretty        bool
}

func Load() Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("STOCK_CACHE_TTL_SECONDS", "300"))
	if err != nil || ttl < 1 {
		ttl = 300
	}
	retries, err := strconv.Atoi(getEnv("COMMIT_MAX_RETRIES", "3"))
	if err != nil || retries < 1 {
		retries = 3
	}

	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		AllowedOrigin:    getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		StockTTLSeconds:  ttl,
		NotifyChannel:    getEnv("STOCK_NOTIFY_CHANNEL", "stock_alerts"),
		CommitMaxRetries: retries,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogPretty:        getEnv("LOG_PRETTY", "false") == "true",
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
