package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 4, cfg.DispatchConcurrency)
	assert.Equal(t, 10*time.Second, cfg.SMTPConnectTimeout)
	assert.Equal(t, 10*time.Second, cfg.SMTPGreetingTimeout)
	assert.Equal(t, 15*time.Second, cfg.SMTPSocketTimeout)
	assert.Equal(t, "Premunia", cfg.DefaultFromName)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISPATCH_CONCURRENCY", "8")
	t.Setenv("SMTP_SOCKET_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.DispatchConcurrency)
	assert.Equal(t, 3*time.Second, cfg.SMTPSocketTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsZeroConcurrency(t *testing.T) {
	t.Setenv("DISPATCH_CONCURRENCY", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresDatabaseInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestMaskedDatabaseURL(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://leadmail:s3cret@db:5432/leadmail?sslmode=disable"}
	assert.Equal(t, "postgres://leadmail:*****@db:5432/leadmail?sslmode=disable", cfg.MaskedDatabaseURL())

	cfg.DatabaseURL = "postgres://db/leadmail"
	assert.Equal(t, "postgres://db/leadmail", cfg.MaskedDatabaseURL())
}
