package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the chat service
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	Casdoor    CasdoorConfig
	Kafka      KafkaConfig
	Moderation ModerationConfig
	LeetCode   LeetCodeConfig
	Chat       ChatConfig

	// Shared secret for the scheduled sync trigger endpoint
	CronSecret string
}

// CasdoorConfig holds identity provider settings
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Cert         string
	Organization string
	Application  string
}

// KafkaConfig holds event bus settings
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// ModerationConfig holds external moderation client settings
type ModerationConfig struct {
	Enabled        bool
	APIKey         string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	BlockThreshold float64
}

// LeetCodeConfig holds profile sync settings
type LeetCodeConfig struct {
	BaseURL      string
	BatchSize    int
	BatchDelay   time.Duration
	SyncEnabled  bool
	SyncSchedule string
}

// ChatConfig holds message and paging limits
type ChatConfig struct {
	MaxMessageLength   int
	DefaultPageSize    int
	MaxPageSize        int
	SendLimitPerMinute int
}

// LoadConfig reads configuration from .env (if present) and the environment
func LoadConfig() (*Config, error) {
	// .env is optional; environment variables take precedence in deployment
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		Casdoor: CasdoorConfig{
			Endpoint:     os.Getenv("CASDOOR_ENDPOINT"),
			ClientID:     os.Getenv("CASDOOR_CLIENT_ID"),
			ClientSecret: os.Getenv("CASDOOR_CLIENT_SECRET"),
			Cert:         os.Getenv("CASDOOR_CERT"),
			Organization: os.Getenv("CASDOOR_ORGANIZATION"),
			Application:  os.Getenv("CASDOOR_APPLICATION"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: splitAndTrim(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "placement.events"),
		},
		Moderation: ModerationConfig{
			Enabled:        getEnvBool("MODERATION_ENABLED", true),
			APIKey:         os.Getenv("OPENROUTER_API_KEY"),
			BaseURL:        getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Model:          getEnv("MODERATION_MODEL", "google/gemini-2.0-flash-exp:free"),
			Timeout:        getEnvDuration("MODERATION_TIMEOUT", 10*time.Second),
			BlockThreshold: getEnvFloat("MODERATION_BLOCK_THRESHOLD", 0.7),
		},
		LeetCode: LeetCodeConfig{
			BaseURL:      getEnv("LEETCODE_BASE_URL", "https://leetcode.com"),
			BatchSize:    getEnvInt("LEETCODE_BATCH_SIZE", 5),
			BatchDelay:   getEnvDuration("LEETCODE_BATCH_DELAY", 1500*time.Millisecond),
			SyncEnabled:  getEnvBool("LEETCODE_SYNC_ENABLED", true),
			SyncSchedule: getEnv("LEETCODE_SYNC_SCHEDULE", "0 2 * * *"),
		},
		Chat: ChatConfig{
			MaxMessageLength:   getEnvInt("CHAT_MAX_MESSAGE_LENGTH", 5000),
			DefaultPageSize:    getEnvInt("CHAT_DEFAULT_PAGE_SIZE", 50),
			MaxPageSize:        getEnvInt("CHAT_MAX_PAGE_SIZE", 200),
			SendLimitPerMinute: getEnvInt("CHAT_SEND_LIMIT_PER_MINUTE", 30),
		},
		CronSecret: os.Getenv("CRON_SECRET"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
