package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{"jwt_secret": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "product image", cfg.UploadDir)
	assert.False(t, cfg.AllowRegistration)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.CORSOrigins)
}

func TestFromViper_MissingSecret(t *testing.T) {
	_, err := fromViper(newViper(nil))
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestFromViper_RejectsUnknownDriver(t *testing.T) {
	_, err := fromViper(newViper(map[string]any{"jwt_secret": "k", "db_driver": "oracle"}))
	assert.Error(t, err)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("ALLOW_REGISTRATION", "true")
	t.Setenv("CORS_ORIGINS", " https://pos.example.com ,")

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.AllowRegistration)
	assert.Equal(t, []string{"https://pos.example.com"}, cfg.CORSOrigins)
}
