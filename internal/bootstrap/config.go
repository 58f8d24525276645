package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Saschakew/ShoppingLists/internal/hub"
	"github.com/Saschakew/ShoppingLists/internal/infra/setup"
)

// Config holds the settings loaded from the environment.
type Config struct {
	DBDriver          string
	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	DBPath            string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	KeyPrefix         string
	JWTSecret         string
	JWTExpiryHours    int
	ServerPort        string
	LogLevel          string
	LogFile           string // optional, rotated
	AppEnv            string // development / production
	RateLimitMax      int
	RateLimitWindow   time.Duration
	BroadcastTimeout  time.Duration
	CORSAllowedOrigin string
	RelayEnabled      bool
}

// LoadConfig reads the configuration from the environment, after loading .env if present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:          os.Getenv("DB_DRIVER"),
		DBUser:            os.Getenv("DB_USER"),
		DBPassword:        os.Getenv("DB_PASSWORD"),
		DBHost:            os.Getenv("DB_HOST"),
		DBPort:            os.Getenv("DB_PORT"),
		DBName:            os.Getenv("DB_NAME"),
		DBPath:            os.Getenv("DB_PATH"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		KeyPrefix:         os.Getenv("REDIS_KEY_PREFIX"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		ServerPort:        os.Getenv("SERVER_PORT"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		LogFile:           os.Getenv("LOG_FILE"),
		AppEnv:            os.Getenv("APP_ENV"),
		CORSAllowedOrigin: os.Getenv("CORS_ALLOWED_ORIGIN"),
		RateLimitMax:      100,
		RateLimitWindow:   1 * time.Second,
		JWTExpiryHours:    24,
		BroadcastTimeout:  hub.DefaultDeliveryTimeout,
		RelayEnabled:      true,
	}

	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB")) // 0 when unset

	var err error
	if cfg.JWTExpiryHours, err = intEnv("JWT_EXPIRY_HOURS", cfg.JWTExpiryHours); err != nil {
		return nil, err
	}
	if cfg.RateLimitMax, err = intEnv("RATE_LIMIT_MAX", cfg.RateLimitMax); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = durationEnv("RATE_LIMIT_WINDOW", cfg.RateLimitWindow); err != nil {
		return nil, err
	}
	if cfg.BroadcastTimeout, err = durationEnv("BROADCAST_TIMEOUT", cfg.BroadcastTimeout); err != nil {
		return nil, err
	}
	if v := os.Getenv("RELAY_ENABLED"); v != "" {
		if cfg.RelayEnabled, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("environment variable RELAY_ENABLED: %w", err)
		}
	}

	if cfg.DBDriver == "" {
		cfg.DBDriver = setup.DriverMySQL
	}
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	if cfg.DBDriver != setup.DriverMySQL && cfg.DBDriver != setup.DriverSQLite {
		return nil, fmt.Errorf("environment variable DB_DRIVER must be %q or %q, got %q", setup.DriverMySQL, setup.DriverSQLite, cfg.DBDriver)
	}
	if cfg.DBDriver == setup.DriverSQLite && cfg.DBPath == "" {
		cfg.DBPath = "shopping_lists.db"
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "sl:"
	}
	if cfg.CORSAllowedOrigin == "" {
		cfg.CORSAllowedOrigin = "http://localhost:3000"
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("environment variable JWT_SECRET must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// DBOptions returns the database settings in the form setup.InitDB expects.
func (c *Config) DBOptions() setup.DBOptions {
	return setup.DBOptions{
		Driver:   c.DBDriver,
		User:     c.DBUser,
		Password: c.DBPassword,
		Host:     c.DBHost,
		Port:     c.DBPort,
		Name:     c.DBName,
		Path:     c.DBPath,
	}
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("environment variable %s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("environment variable %s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
