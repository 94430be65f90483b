// package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// smtp
	SMTPProvider string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPUseTLS   bool
	SMTPFrom     string
	SMTPFromName string

	// sending
	SendDelayMin       time.Duration
	SendDelayMax       time.Duration
	SendBatchSize      int
	BackoffOnTransient time.Duration

	// inputs
	TemplateFile   string
	AttachmentPath string

	// outputs
	LogCSVPath  string
	DatabaseURL string
	NatsURL     string
	AMQPURL     string

	// server
	HTTPPort int

	// logging
	LogLevel string
	LogFile  string
}

// LoadDotEnv loads variables from the given files (default ".env") without
// overriding variables already present. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		SMTPProvider:       getEnv("SMTP_PROVIDER", "gmail"),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnvInt("SMTP_PORT", 0),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:         getEnvBool("SMTP_USE_TLS", true),
		SMTPFrom:           getEnv("SMTP_FROM", ""),
		SMTPFromName:       getEnv("SMTP_FROM_NAME", ""),
		SendDelayMin:       getEnvDuration("SEND_DELAY_MIN", 5*time.Second),
		SendDelayMax:       getEnvDuration("SEND_DELAY_MAX", 12*time.Second),
		SendBatchSize:      getEnvInt("SEND_BATCH_SIZE", 20),
		BackoffOnTransient: getEnvDuration("BACKOFF_ON_TRANSIENT", 30*time.Second),
		TemplateFile:       getEnv("TEMPLATE_FILE", ""),
		AttachmentPath:     getEnv("CV_PATH", ""),
		LogCSVPath:         getEnv("LOG_CSV_PATH", "logs/application_log.csv"),
		DatabaseURL:        getEnv("DATABASE_URL", "sqlite:data/autorecruit.db"),
		NatsURL:            getEnv("NATS_URL", ""),
		AMQPURL:            getEnv("AMQP_URL", ""),
		HTTPPort:           getEnvInt("HTTP_PORT", 3100),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
	}

	// the SMTP username doubles as the sender, as most providers require
	if cfg.SMTPFrom == "" {
		cfg.SMTPFrom = cfg.SMTPUser
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration accepts Go durations ("1m30s") or a bare number of seconds.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return time.Duration(f * float64(time.Second))
	}
	return defaultVal
}
