package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the application.
// It follows the 12-factor app methodology by prioritizing environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Provider ProviderConfig
	Auth     AuthConfig
	Media    MediaConfig
	Sweeper  SweeperConfig
}

type ServerConfig struct {
	Port        string
	Environment string
	// PublicBaseURL is the externally visible base URL webhooks are
	// delivered to. Signature verification is computed over the full
	// callback URL, so this must match what the provider was given.
	PublicBaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProviderConfig configures the upstream messaging provider.
type ProviderConfig struct {
	BaseURL        string
	Token          string
	SigningSecret  string
	TimeoutSeconds int
}

type AuthConfig struct {
	JWTSecret string
}

type MediaConfig struct {
	Bucket     string
	Region     string
	PublicBase string
}

type SweeperConfig struct {
	IntervalSeconds int
	StuckAfterSecs  int
	BatchSize       int
}

// LoadConfig loads configuration from environment variables.
// Defaults can be set here if needed.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:          getEnv("SERVER_PORT", "8080"),
			Environment:   getEnv("APP_ENV", "development"),
			PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "relaydesk"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Provider: ProviderConfig{
			BaseURL:        getEnv("PROVIDER_BASE_URL", "https://api.messaging.example.com"),
			Token:          getEnv("PROVIDER_TOKEN", ""),
			SigningSecret:  getEnv("PROVIDER_SIGNING_SECRET", ""),
			TimeoutSeconds: getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 15),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Media: MediaConfig{
			Bucket:     getEnv("MEDIA_BUCKET", ""),
			Region:     getEnv("AWS_REGION", "us-east-1"),
			PublicBase: getEnv("MEDIA_PUBLIC_BASE", ""),
		},
		Sweeper: SweeperConfig{
			IntervalSeconds: getEnvAsInt("SWEEPER_INTERVAL_SECONDS", 60),
			StuckAfterSecs:  getEnvAsInt("SWEEPER_STUCK_AFTER_SECONDS", 300),
			BatchSize:       getEnvAsInt("SWEEPER_BATCH_SIZE", 50),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
