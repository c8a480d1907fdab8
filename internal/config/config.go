package config

import (
	"os"
	"strconv"
	"time"

	"github.com/MikeSquared-Agency/coach/internal/inference"
)

type Config struct {
	Port             int
	LogLevel         string
	HFAPIURL         string
	HFAPIToken       string
	HFTimeout        time.Duration
	ExplorationTurns int
	TransitionDelay  time.Duration
	NatsURL          string
	NatsToken        string
	DatabaseURL      string
	SessionTTL       time.Duration
}

func Load() Config {
	return Config{
		Port:             envInt("COACH_PORT", 8760),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		HFAPIURL:         envStr("HF_API_URL", inference.DefaultURL),
		HFAPIToken:       envStr("HF_API_TOKEN", ""),
		HFTimeout:        envDuration("HF_TIMEOUT", 120*time.Second),
		ExplorationTurns: envInt("COACH_EXPLORATION_TURNS", 3),
		TransitionDelay:  envDuration("COACH_TRANSITION_DELAY", 2*time.Second),
		NatsURL:          envStr("NATS_URL", ""),
		NatsToken:        envStr("NATS_TOKEN", ""),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		SessionTTL:       envDuration("COACH_SESSION_TTL", 60*time.Minute),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envDuration accepts Go duration strings ("90s", "2m").
func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
	}
	return fallback
}
