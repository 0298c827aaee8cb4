package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are mapped onto Config.
// FOODGRAM_SERVER_PORT -> server_port
const EnvPrefix = "FOODGRAM_"

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort  string `koanf:"server_port" validate:"required"`
	ServerHost  string `koanf:"server_host"`
	PublicURL   string `koanf:"public_url"`
	CORSOrigins string `koanf:"cors_origins"`
	LogLevel    string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// Database configuration
	DBDriver   string `koanf:"db_driver" validate:"oneof=postgres sqlite"`
	DBHost     string `koanf:"db_host" validate:"required_if=DBDriver postgres"`
	DBPort     string `koanf:"db_port" validate:"required_if=DBDriver postgres"`
	DBUser     string `koanf:"db_user" validate:"required_if=DBDriver postgres"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name" validate:"required_if=DBDriver postgres"`
	DBSSLMode  string `koanf:"db_ssl_mode"`
	SQLitePath string `koanf:"sqlite_path" validate:"required_if=DBDriver sqlite"`

	// Redis configuration, empty host and URL disables Redis
	RedisHost     string `koanf:"redis_host"`
	RedisPort     string `koanf:"redis_port"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisURL      string `koanf:"redis_url"`

	// JWT configuration
	JWTSecret string        `koanf:"jwt_secret" validate:"required,min=8"`
	TokenTTL  time.Duration `koanf:"token_ttl" validate:"gt=0"`

	// Pagination
	PageSize int `koanf:"page_size" validate:"gte=1,lte=100"`

	// Media storage, S3 is used when a bucket is configured
	MediaDir  string `koanf:"media_dir" validate:"required"`
	MediaURL  string `koanf:"media_url" validate:"required"`
	S3Bucket  string `koanf:"s3_bucket_name"`
	AWSRegion string `koanf:"aws_region"`

	// Recipe creation rate limit
	RecipeCreateLimit  int           `koanf:"recipe_create_limit" validate:"gte=0"`
	RecipeCreateWindow time.Duration `koanf:"recipe_create_window"`
}

// Defaults returns the configuration used when nothing else is set
func Defaults() Config {
	return Config{
		ServerPort:         "8080",
		ServerHost:         "0.0.0.0",
		CORSOrigins:        "http://localhost:3000",
		LogLevel:           "info",
		DBDriver:           "postgres",
		DBHost:             "localhost",
		DBPort:             "5432",
		DBUser:             "foodgram",
		DBName:             "foodgram",
		DBSSLMode:          "disable",
		SQLitePath:         "foodgram.db",
		TokenTTL:           24 * time.Hour,
		PageSize:           6,
		MediaDir:           "media",
		MediaURL:           "/media/",
		RecipeCreateLimit:  30,
		RecipeCreateWindow: time.Hour,
	}
}

// sensitive values that may come from Docker secrets
var secretFiles = map[string]string{
	"db_password":    "db_password",
	"jwt_secret":     "jwt_secret",
	"redis_password": "redis_password",
}

// LoadConfig layers defaults, environment variables and Docker secrets, then validates the result
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Docker secrets win over plain environment variables outside of CI
	if GetEnvironment() != CI {
		for key, name := range secretFiles {
			if value := readSecret(name); value != "" {
				if err := k.Set(key, value); err != nil {
					return nil, fmt.Errorf("failed to apply secret %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Addr returns the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

// AllowedOrigins splits the comma separated CORS origin list
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// RedisEnabled reports whether a Redis endpoint is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// DSN builds the PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

var validate = validator.New()
