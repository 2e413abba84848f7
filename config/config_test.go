package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv entfernt eine Variable für die Dauer des Tests; envconfig wertet
// auch leere Werte als gesetzt.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, ok := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if ok {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func setBaseEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"S3_URL", "S3_BUCKET", "S3_KEY", "S3_SECRET", "S3_REGION",
		"ARCHIVE_CRON_SCHEDULE", "LLM_MODEL", "LLM_BASE_URL", "LLM_TIMEOUT", "HTTP_PORT",
	} {
		unsetEnv(t, key)
	}
	t.Setenv("OPENROUTER_API_KEY", "or-key")
}

func TestLoad_DatabaseURL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "postgres://feed:secret@db:5432/feed")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://feed:secret@db:5432/feed", cfg.DSN())
	assert.Equal(t, "3000", cfg.HTTPPort)
	assert.Equal(t, "anthropic/claude-3-haiku", cfg.LLMModel)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLMBaseURL)
	assert.Equal(t, 90*time.Second, cfg.LLMTimeout)
	assert.False(t, cfg.S3Enabled())
}

func TestLoad_DiscreteDatabaseSettings(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "feed")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "feeddb")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "host=localhost user=feed password=pw dbname=feeddb port=5432 sslmode=disable", cfg.DSN())
}

func TestLoad_MissingDatabase(t *testing.T) {
	setBaseEnv(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_HOST")
}

func TestLoad_MissingAPIKey(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "postgres://x")
	unsetEnv(t, "OPENROUTER_API_KEY")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate_S3AllOrNothing(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://x", S3URL: "https://s3.example.com"}
	require.Error(t, cfg.Validate())

	cfg.S3Bucket = "reports"
	cfg.S3Key = "key"
	cfg.S3Secret = "secret"
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.S3Enabled())
}

func TestValidate_ArchiveNeedsS3(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://x", ArchiveCronSchedule: "@daily"}
	require.Error(t, cfg.Validate())
}
