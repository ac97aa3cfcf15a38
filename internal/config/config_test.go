package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDatabaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@host:5432/db", "postgresql://u:p@host:5432/db"},
		{"postgresql://u:p@host:5432/db", "postgresql://u:p@host:5432/db"},
		{"host=localhost dbname=wallet", "host=localhost dbname=wallet"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDatabaseURL(tt.in))
	}
}

func TestNew(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@host:5432/wallet")
	t.Setenv("PORT", "9090")
	t.Setenv("WEB_CONCURRENCY", "8")
	t.Setenv("LOCK_TIMEOUT_MS", "1500")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("NATS_URL", "")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "postgresql://u:p@host:5432/wallet", cfg.DatabaseURL)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, 8, cfg.WebConcurrency)
	assert.Equal(t, 1500*time.Millisecond, cfg.LockTimeout)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.NatsURL)
}

func TestNew_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgresql://u:p@host:5432/wallet")
	t.Setenv("PORT", "")
	t.Setenv("WEB_CONCURRENCY", "")
	t.Setenv("LOCK_TIMEOUT_MS", "")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 4, cfg.WebConcurrency)
	assert.Equal(t, 3*time.Second, cfg.LockTimeout)
}

func TestNew_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := New()
	assert.Error(t, err)
}

func TestNew_InvalidConcurrency(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgresql://u:p@host/db")
	t.Setenv("WEB_CONCURRENCY", "0")
	_, err := New()
	assert.Error(t, err)
}
