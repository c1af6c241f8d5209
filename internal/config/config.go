// Package config loads server settings from .env and the process environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	DBDriver          string        `mapstructure:"db_driver"`
	DBDSN             string        `mapstructure:"db_dsn"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	UploadDir         string        `mapstructure:"upload_dir"`
	AllowRegistration bool          `mapstructure:"allow_registration"`
	CORSOrigins       []string      `mapstructure:"-"`
	WebDir            string        `mapstructure:"web_dir"`
	GeminiAPIKey      string        `mapstructure:"gemini_api_key"`
	LogLevel          string        `mapstructure:"log_level"`
}

// field: default value
var defaults = map[string]any{
	"port":               8080,
	"base_url":           "http://localhost:8080",
	"db_driver":          "sqlite",
	"db_dsn":             "pos-database.sqlite",
	"jwt_secret":         "",
	"token_ttl":          "24h",
	"upload_dir":         "product image",
	"allow_registration": false,
	"cors_origins":       "http://localhost:5173,http://localhost:8080",
	"web_dir":            "./web",
	"gemini_api_key":     "",
	"log_level":          "info",
}

// ErrMissingSecret is returned when JWT_SECRET is not configured.
var ErrMissingSecret = errors.New("JWT_SECRET is required")

// Load reads an optional .env file, then the environment. Environment
// variables win over .env values.
func Load() (*Config, bool, error) {
	envLoaded := godotenv.Load() == nil

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	cfg, err := fromViper(v)
	return cfg, envLoaded, err
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}
	cfg.TokenTTL = v.GetDuration("token_ttl")
	cfg.CORSOrigins = splitList(v.GetString("cors_origins"))

	if cfg.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	switch cfg.DBDriver {
	case "sqlite", "mysql":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or mysql)", cfg.DBDriver)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	return &cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
