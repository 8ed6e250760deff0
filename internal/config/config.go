package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the client.
type Config struct {
	AppName     string
	Environment string
	API         APIConfig
	Credentials CredentialsConfig
	Google      GoogleConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// CredentialsConfig selects the token storage backend. "bolt" keeps the
// tokens in a local file, "redis" shares them across hosts, "memory" holds
// them for the life of the process only.
type CredentialsConfig struct {
	Backend       string
	Path          string
	RedisURL      string
	RedisPassword string
	RedisDB       int
}

type GoogleConfig struct {
	Enabled    bool
	ClientID   string
	ListenAddr string
	Timeout    time.Duration
}

type ContextConfig struct {
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the client can run in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "scholarhub"),
		Environment: getString("APP_ENV", "development"),
		API: APIConfig{
			BaseURL:        getString("SCHOLARHUB_API_URL", "http://127.0.0.1:8000/api"),
			RequestTimeout: getDuration("SCHOLARHUB_REQUEST_TIMEOUT", 15*time.Second),
		},
		Credentials: CredentialsConfig{
			Backend:       getString("CREDENTIALS_BACKEND", "bolt"),
			Path:          getString("CREDENTIALS_PATH", defaultCredentialsPath()),
			RedisURL:      getString("CREDENTIALS_REDIS_URL", "redis://localhost:6379"),
			RedisPassword: os.Getenv("CREDENTIALS_REDIS_PASSWORD"),
			RedisDB:       getInt("CREDENTIALS_REDIS_DB", 0),
		},
		Google: GoogleConfig{
			Enabled:    getBool("ENABLE_SOCIAL_AUTH", false),
			ClientID:   os.Getenv("GOOGLE_CLIENT_ID"),
			ListenAddr: getString("GOOGLE_CALLBACK_ADDR", "127.0.0.1:8123"),
			Timeout:    getDuration("GOOGLE_FLOW_TIMEOUT", 3*time.Minute),
		},
		Context: ContextConfig{
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "warn"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("SCHOLARHUB_API_URL must not be empty")
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func defaultCredentialsPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "scholarhub", "credentials.db")
	}
	return "./data/credentials.db"
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
