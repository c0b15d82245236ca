package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	JWTSecret       string
	JWTAccessExpiry time.Duration

	LogLevel  string
	LogFormat string

	FrontendURL string

	Teams TeamsConfig
	Kafka KafkaConfig
	SMTP  SMTPConfig
}

type TeamsConfig struct {
	JoinCodeLength      int
	JoinCodeMaxAttempts int
	// AutoCancelOnDirectAdd cancels a pending invitation for the same
	// (team, student) when the leader adds the student directly.
	AutoCancelOnDirectAdd bool
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:       getEnvOrPanic("JWT_SECRET"),
		JWTAccessExpiry: getEnvDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", ""),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		Teams: TeamsConfig{
			JoinCodeLength:        getEnvInt("JOIN_CODE_LENGTH", 6),
			JoinCodeMaxAttempts:   getEnvInt("JOIN_CODE_MAX_ATTEMPTS", 10),
			AutoCancelOnDirectAdd: getEnvBool("AUTO_CANCEL_ON_DIRECT_ADD", false),
		},

		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_TOPIC", "peifeira.team-events"),
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnvOrPanic(key string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		panic("required environment variable not set: " + key)
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
