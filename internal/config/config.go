package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string
	DatabaseURL   string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AuthJWTSecret string
	AuthTokenTTL  time.Duration

	// ClinicAddress and ClinicTimezone identify the single clinic this
	// deployment books against. Day boundaries for availability and booking
	// are always computed in ClinicTimezone, never the caller's zone.
	ClinicAddress  string
	ClinicTimezone string

	// CredentialPrefix is the fixed two-letter prefix prepended to a trapper's
	// 4-digit code to form their login password.
	CredentialPrefix string

	// AdminUnlimitedWhenUnscheduled treats a missing capacity record as
	// unlimited for admin-created appointments. Trapper bookings always treat
	// a missing record as zero capacity.
	AdminUnlimitedWhenUnscheduled bool

	ReconcileInterval  time.Duration
	ReconcileChunkSize int

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string

	CORSAllowedOrigins []string

	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		AuthTokenTTL:  getEnvAsDuration("AUTH_TOKEN_TTL", 24*time.Hour),

		ClinicAddress:  getEnv("CLINIC_ADDRESS", ""),
		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "America/New_York"),

		CredentialPrefix: getEnv("CREDENTIAL_PREFIX", "tc"),

		AdminUnlimitedWhenUnscheduled: getEnvAsBool("ADMIN_UNLIMITED_WHEN_UNSCHEDULED", false),

		ReconcileInterval:  getEnvAsDuration("RECONCILE_INTERVAL", 24*time.Hour),
		ReconcileChunkSize: getEnvAsInt("RECONCILE_CHUNK_SIZE", 400),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "TNVR Clinic"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 30),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
