package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ON_MISSING_PATIENT", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "abort", cfg.OnMissingPatient)
	assert.Equal(t, 30*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 7, cfg.BookingHorizonDays)
	assert.Equal(t, 65535, cfg.SymptomMaxLength)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("ON_MISSING_PATIENT", "Auto_Create")
	t.Setenv("ORACLE_TIMEOUT", "45s")
	t.Setenv("BOOKING_HORIZON_DAYS", "14")
	t.Setenv("INTAKE_RATE_LIMIT", "0.5")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "postgres://user@host/db", cfg.DatabaseURL)
	assert.Equal(t, "auto_create", cfg.OnMissingPatient)
	assert.Equal(t, 45*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 14, cfg.BookingHorizonDays)
	assert.Equal(t, 0.5, cfg.IntakeRateLimit)
	assert.True(t, cfg.RedisTLS)
}

func TestCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	origins := Load().CORSOrigins()
	require.Len(t, origins, 2)
	assert.Equal(t, "https://a.example.com", origins[0])
	assert.Equal(t, "https://b.example.com", origins[1])

	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	assert.Nil(t, Load().CORSOrigins())
}
