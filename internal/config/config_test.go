package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/brixar?parseTime=true")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://brixar.com.ar, https://admin.brixar.com.ar")

	cfg, err := Load("api")
	require.NoError(t, err)

	assert.Equal(t, "api", cfg.RunMode)
	assert.Equal(t, 30*time.Minute, cfg.FxRefreshInterval)
	assert.Equal(t, 10*time.Second, cfg.FxHTTPTimeout)
	assert.Equal(t, []string{"https://brixar.com.ar", "https://admin.brixar.com.ar"}, cfg.CorsAllowedOrigins)
	assert.True(t, cfg.DbAutoMigrate)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load("api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")
}

func TestLoad_InvalidRefreshInterval(t *testing.T) {
	t.Setenv("DB_DSN", "dsn")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("FX_REFRESH_INTERVAL_MINUTES", "0")

	_, err := Load("bg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FX_REFRESH_INTERVAL_MINUTES")
}
