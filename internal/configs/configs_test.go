package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"ENVIRONMENT", "PORT", "POW_DIFFICULTY", "ALLOWED_ORIGINS", "JWT_SECRET",
		"JWT_EXPIRATION", "STORE_DRIVER", "DATABASE_URL", "FILE_STORAGE", "MEDIA_DIR",
		"S3_BUCKET_NAME", "S3_ENDPOINT", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_DevelopmentDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 0, cfg.PowDifficulty)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiration)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.Equal(t, FileStorageLocal, cfg.FileStorage)
	assert.Equal(t, "media", cfg.MediaDir)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadConfig_ProductionRequiresSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "postgres://db/chat")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadConfig_ParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("JWT_EXPIRATION", "90m")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 90*time.Minute, cfg.JWTExpiration)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Empty(t, cfg.DatabaseDSN)
}

func TestLoadConfig_Rejections(t *testing.T) {
	tests := map[string]map[string]string{
		"privileged port":  {"PORT": "80"},
		"non numeric port": {"PORT": "http"},
		"bad driver":       {"STORE_DRIVER": "mongo"},
		"bad storage":      {"FILE_STORAGE": "ftp"},
		"s3 without creds": {"FILE_STORAGE": "s3"},
		"bad expiration":   {"JWT_EXPIRATION": "tomorrow"},
	}

	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
