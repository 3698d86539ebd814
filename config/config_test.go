package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDriverNeedsNothing(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "@every 45m", cfg.Auth.RefreshSpec)
	assert.Equal(t, 5, cfg.Upload.MaxSizeMB)
}

func TestLoad_FirebaseDriverRequiresURLAndCredentials(t *testing.T) {
	t.Setenv("STORE_DRIVER", "firebase")
	t.Setenv("FIREBASE_DATABASE_URL", "")
	t.Setenv("FIREBASE_CREDENTIALS_PATH", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIREBASE_DATABASE_URL")

	t.Setenv("FIREBASE_DATABASE_URL", "https://demo.firebaseio.com")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIREBASE_CREDENTIALS_PATH")

	t.Setenv("FIREBASE_CREDENTIALS_PATH", "/tmp/creds.json")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://demo.firebaseio.com", cfg.Store.DatabaseURL)
}

func TestLoad_PostgresDriverRequiresDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DSN")

	t.Setenv("DB_DSN", "postgres://app@localhost/social")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app@localhost/social", cfg.Store.PostgresDSN)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown STORE_DRIVER")
}

func TestLoad_CORSOriginsSplitAndTrimmed(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://app.example.com ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:5173", "https://app.example.com"}, cfg.Server.CORSOrigins)
}

func TestLoad_InvalidIntFallsBackToDefault(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("UPLOAD_MAX_SIZE_MB", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Upload.MaxSizeMB)
}
