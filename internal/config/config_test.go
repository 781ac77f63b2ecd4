package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/payments")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 200, cfg.RateLimitMax)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 5, cfg.AuthRateLimitMax)
	assert.False(t, cfg.TLSEnabled())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_DRIVER=sqlite3\nDATABASE_URL=file:dev.sqlite\nJWT_SECRET=from-file\nAPP_ENV=development\n"), 0o600))

	// Values set in the environment take precedence over the file.
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_DRIVER", "")
	os.Unsetenv("DATABASE_DRIVER")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("DATABASE_URL")
	t.Setenv("APP_ENV", "")
	os.Unsetenv("APP_ENV")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
	assert.Equal(t, "file:dev.sqlite", cfg.DatabaseURL)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"DATABASE_URL": "postgres://localhost/payments", "JWT_SECRET": ""},
		},
		{
			name: "unknown driver",
			env:  map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "s", "DATABASE_DRIVER": "mysql"},
		},
		{
			name: "half TLS config",
			env:  map[string]string{"DATABASE_URL": "x", "JWT_SECRET": "s", "TLS_CERT_FILE": "cert.pem"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
				if v == "" {
					os.Unsetenv(k)
				}
			}
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
		})
	}
}
