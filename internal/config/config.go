package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	RedisAddr  string

	JWTSecret string
	TokenTTL  time.Duration

	GenHost        string
	GenModel       string
	GenTemperature float64
	ContextWindow  int
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Environment loaded from .env file")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "converse"),
		DBPassword: getEnv("DB_PASSWORD", "converse_dev_password"),
		DBName:     getEnv("DB_NAME", "converse"),
		RedisAddr:  getEnv("REDIS_ADDR", ""),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:  getEnvAsDuration("TOKEN_TTL", 24*time.Hour),

		GenHost:        getEnv("GEN_HOST", "localhost:11434"),
		GenModel:       getEnv("GEN_MODEL", "qwen3:0.6b"),
		GenTemperature: getEnvAsFloat64("GEN_TEMPERATURE", 0.7),
		ContextWindow:  getEnvAsInt("GEN_CONTEXT_WINDOW", 10),
	}
}

func getEnv(key, fallback string) string {
	val, exists := os.LookupEnv(key)

	if exists {
		return val
	}

	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if val, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return val
	}
	return fallback
}

func getEnvAsFloat64(key string, fallback float64) float64 {
	if val, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return val
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if val, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return val
	}
	return fallback
}
