package config

import (
	"encoding/base64"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every INKPAD_ env var that Load() reads.
var allConfigKeys = []string{
	"INKPAD_DB_PATH",
	"INKPAD_SECRET_KEY",
	"INKPAD_MANIFEST_INTERVAL",
	"INKPAD_OPERATION_TIMEOUT",
}

// isolateConfigEnv saves and unsets all INKPAD_ env vars so tests don't
// inherit values from the host environment. t.Cleanup restores original
// values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	t.Setenv("INKPAD_DB_PATH", "/tmp/test.db")
	t.Setenv("INKPAD_SECRET_KEY", key)
	t.Setenv("INKPAD_MANIFEST_INTERVAL", "12h")
	t.Setenv("INKPAD_OPERATION_TIMEOUT", "30s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.True(t, cfg.HasSecretKey())
	assert.Equal(t, 12*time.Hour, cfg.ManifestInterval)
	assert.Equal(t, 30*time.Second, cfg.OperationTimeout)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "inkpad.db", cfg.DBPath)
	assert.False(t, cfg.HasSecretKey())
	assert.Equal(t, 24*time.Hour, cfg.ManifestInterval)
	assert.Equal(t, 2*time.Minute, cfg.OperationTimeout)
}

func TestLoad_InvalidSecretKeyBase64(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("INKPAD_SECRET_KEY", "not-base64!!!")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INKPAD_SECRET_KEY")
}

func TestLoad_SecretKeyWrongLength(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("INKPAD_SECRET_KEY", base64.StdEncoding.EncodeToString([]byte("short")))

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "32 bytes")
}

func TestLoad_InvalidManifestInterval(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("INKPAD_MANIFEST_INTERVAL", "soon")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INKPAD_MANIFEST_INTERVAL")
}

func TestLoad_InvalidOperationTimeout(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("INKPAD_OPERATION_TIMEOUT", "fast")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "INKPAD_OPERATION_TIMEOUT")
}
