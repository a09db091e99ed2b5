package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// app config; provider and channel specifics live beside their packages
type Config struct {
	Provider  string
	Port      string
	JWTSecret string

	// voice workflow that generates a fresh interview
	WorkflowID string
	// embedded assistant template used for fixed-question interviews
	InterviewerAssistant string

	FeedbackTimeout  time.Duration
	FeedbackAttempts int
	FeedbackBackoff  time.Duration

	MaxAgentsPerUser int
	AgentIdleTTL     time.Duration
	ReaperSchedule   string
	ReaperEnabled    bool

	PostgresDSN    string
	MongoURI       string
	RedisAddr      string
	AllowedOrigins []string
}

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Provider:             getEnvOrDefault("AI_PROVIDER", "gemini"),
		Port:                 getEnvOrDefault("PORT", "8080"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		WorkflowID:           os.Getenv("VOICE_WORKFLOW_ID"),
		InterviewerAssistant: getEnvOrDefault("VOICE_INTERVIEWER_ASSISTANT", "interviewer"),
		FeedbackTimeout:      getEnvDuration("FEEDBACK_TIMEOUT", 60*time.Second),
		FeedbackAttempts:     getEnvInt("FEEDBACK_ATTEMPTS", 3),
		FeedbackBackoff:      getEnvDuration("FEEDBACK_BACKOFF", 500*time.Millisecond),
		MaxAgentsPerUser:     getEnvInt("MAX_AGENTS_PER_USER", 5),
		AgentIdleTTL:         getEnvDuration("AGENT_IDLE_TTL", 30*time.Minute),
		ReaperSchedule:       getEnvOrDefault("AGENT_REAPER_SCHEDULE", "@every 1m"),
		ReaperEnabled:        getEnvOrDefault("AGENT_REAPER_ENABLED", "true") == "true",
		PostgresDSN:          postgresDSN(),
		MongoURI:             os.Getenv("MONGO_URI"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		AllowedOrigins:       splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Provider != "gemini" {
		return errors.New("unsupported AI provider: " + config.Provider + ". Currently supported: gemini")
	}
	// Gemini validation is handled by gemini.NewConfig()
	if config.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if config.WorkflowID == "" {
		return errors.New("VOICE_WORKFLOW_ID environment variable is required")
	}
	if config.FeedbackAttempts < 1 {
		return fmt.Errorf("FEEDBACK_ATTEMPTS must be at least 1, got %d", config.FeedbackAttempts)
	}
	if config.FeedbackTimeout <= 0 || config.AgentIdleTTL <= 0 {
		return errors.New("FEEDBACK_TIMEOUT and AGENT_IDLE_TTL must be positive durations")
	}
	return nil
}

func postgresDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getEnvOrDefault("POSTGRES_HOST", "localhost"),
		getEnvOrDefault("POSTGRES_USER", "postgres"),
		getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
		getEnvOrDefault("POSTGRES_DB", "postgres"),
		getEnvOrDefault("POSTGRES_PORT", "5432"),
		getEnvOrDefault("POSTGRES_SSLMODE", "disable"))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
