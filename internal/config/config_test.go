package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.ContextWindow)
	assert.InDelta(t, 0.7, cfg.GenTemperature, 1e-9)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("GEN_CONTEXT_WINDOW", "5")
	t.Setenv("GEN_TEMPERATURE", "0.2")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := Load()

	assert.Equal(t, "9999", cfg.ServerPort)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.ContextWindow)
	assert.InDelta(t, 0.2, cfg.GenTemperature, 1e-9)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("TOKEN_TTL", "not-a-duration")
	t.Setenv("GEN_CONTEXT_WINDOW", "many")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.ContextWindow)
}
