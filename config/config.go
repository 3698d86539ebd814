package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Store  StoreConfig
	Auth   AuthConfig
	Upload UploadConfig
	App    AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// StoreConfig selects and configures the realtime store driver.
// Driver is one of "firebase", "redis", "postgres" or "memory".
type StoreConfig struct {
	Driver          string
	DatabaseURL     string // firebase realtime database URL
	CredentialsPath string // firebase service account file
	RedisAddr       string
	RedisDB         int
	PostgresDSN     string
	PollInterval    int // firebase watch poll interval, seconds
}

type AuthConfig struct {
	WebAPIKey       string // identity toolkit REST key
	CredentialsPath string
	RefreshSpec     string // cron spec for session token refresh
}

type UploadConfig struct {
	APIKey     string
	Endpoint   string
	MaxSizeMB  int
	RatePerMin int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Store: StoreConfig{
			Driver:          getEnv("STORE_DRIVER", "firebase"),
			DatabaseURL:     getEnv("FIREBASE_DATABASE_URL", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:         getEnvAsInt("REDIS_DB", 0),
			PostgresDSN:     getEnv("DB_DSN", ""),
			PollInterval:    getEnvAsInt("STORE_POLL_INTERVAL", 1),
		},
		Auth: AuthConfig{
			WebAPIKey:       getEnv("FIREBASE_WEB_API_KEY", ""),
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
			RefreshSpec:     getEnv("SESSION_REFRESH_SPEC", "@every 45m"),
		},
		Upload: UploadConfig{
			APIKey:     getEnv("IMGBB_API_KEY", ""),
			Endpoint:   getEnv("IMGBB_ENDPOINT", "https://api.imgbb.com/1/upload"),
			MaxSizeMB:  getEnvAsInt("UPLOAD_MAX_SIZE_MB", 5),
			RatePerMin: getEnvAsInt("UPLOAD_RATE_PER_MIN", 30),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Store.Driver {
	case "firebase":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("FIREBASE_DATABASE_URL is required for the firebase store driver")
		}
		if c.Store.CredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required for the firebase store driver")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis store driver")
		}
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("DB_DSN is required for the postgres store driver")
		}
	case "memory":
		// nothing to configure
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
