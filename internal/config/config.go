package config

import (
	"os"
	"strconv"
	"time"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL      string
	Password string
}

// PostgresConfig holds the season archive database configuration
type PostgresConfig struct {
	URL string
}

// PollerConfig controls the scoreboard/game polling cadence
type PollerConfig struct {
	// ScoreboardInterval is how often the scoreboard is refreshed to
	// discover games.
	ScoreboardInterval time.Duration
	// LiveInterval is how often an in-progress game is re-analyzed.
	LiveInterval time.Duration
}

// AnalysisConfig tunes the analysis engine and its cache
type AnalysisConfig struct {
	// CompetitiveThreshold is the win-probability cutoff for the
	// competitive-window tables.
	CompetitiveThreshold float64
	// CacheTTL is how long a final game's analysis stays cached.
	CacheTTL time.Duration
	// CompletionDelay holds off caching a just-finished game until the
	// provider's stat corrections settle.
	CompletionDelay time.Duration
	// Stream is the Redis stream analysis results are published to.
	Stream string
}

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Poller   PollerConfig
	Analysis AnalysisConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("SERVER_ADDR", ":8086"),
			AllowedOrigins: []string{getEnv("ALLOWED_ORIGIN", "*")},
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6380"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Postgres: PostgresConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Poller: PollerConfig{
			ScoreboardInterval: getEnvDuration("SCOREBOARD_POLL_INTERVAL", 5*time.Minute),
			LiveInterval:       getEnvDuration("LIVE_POLL_INTERVAL", 30*time.Second),
		},
		Analysis: AnalysisConfig{
			CompetitiveThreshold: getEnvFloat("COMPETITIVE_WP_THRESHOLD", 0.975),
			CacheTTL:             getEnvDuration("ANALYSIS_CACHE_TTL", 30*24*time.Hour),
			CompletionDelay:      getEnvDuration("COMPLETION_CACHE_DELAY", 20*time.Minute),
			Stream:               getEnv("ANALYSIS_STREAM", "games.analysis.nfl"),
		},
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
