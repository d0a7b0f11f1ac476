package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	os.Setenv("UPLOAD_MAX_BYTES", "10485760")
	os.Setenv("DEDUP_SCOPE", "global")
	defer func() {
		os.Unsetenv("DB_MAX_OPEN_CONNS")
		os.Unsetenv("MINIO_USE_SSL")
		os.Unsetenv("UPLOAD_MAX_BYTES")
		os.Unsetenv("DEDUP_SCOPE")
	}()

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, int64(10485760), cfg.Upload.MaxBytes)
	assert.Equal(t, DedupScopeGlobal, cfg.Upload.DedupScope)
	assert.True(t, cfg.Upload.AuditDuplicates)
}

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("UPLOAD_MAX_BYTES")
	os.Unsetenv("DEDUP_SCOPE")
	os.Unsetenv("UPLOAD_AUDIT_DUPLICATES")

	cfg := Load()

	assert.Equal(t, int64(20<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, DedupScopeOwner, cfg.Upload.DedupScope)
	assert.True(t, cfg.Upload.AuditDuplicates)
	assert.Equal(t, 900, cfg.Upload.PresignExpirySec)
}

func TestGetDedupScope_InvalidFallsBack(t *testing.T) {
	os.Setenv("DEDUP_SCOPE", "everyone")
	defer os.Unsetenv("DEDUP_SCOPE")

	assert.Equal(t, DedupScopeOwner, getDedupScope("DEDUP_SCOPE", DedupScopeOwner))
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvInt64(t *testing.T) {
	key := "TEST_INT64_VAR"

	os.Setenv(key, "21474836480")
	assert.Equal(t, int64(21474836480), getEnvInt64(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, int64(7), getEnvInt64(key, 7))

	os.Unsetenv(key)
	assert.Equal(t, int64(7), getEnvInt64(key, 7))
}
