// Package config loads application configuration from environment variables.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath           string
	SecretKey        []byte
	ManifestInterval time.Duration
	OperationTimeout time.Duration
}

// HasSecretKey reports whether a credential encryption key was supplied.
// Without one the app still runs, but stored passwords cannot be written and
// read back as empty.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) == 32
}

// Load reads configuration from environment variables and returns a validated
// Config. INKPAD_SECRET_KEY (base64, 32 bytes decoded) is optional; without
// it password storage is inactive. Optional variables with defaults:
// INKPAD_DB_PATH (inkpad.db), INKPAD_MANIFEST_INTERVAL (24h),
// INKPAD_OPERATION_TIMEOUT (2m).
func Load() (*Config, error) {
	dbPath := "inkpad.db"
	if v, ok := os.LookupEnv("INKPAD_DB_PATH"); ok {
		dbPath = v
	}

	var secretKey []byte
	if v, ok := os.LookupEnv("INKPAD_SECRET_KEY"); ok && v != "" {
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("INKPAD_SECRET_KEY is not valid base64: %w", err)
		}
		if len(decoded) != 32 {
			return nil, fmt.Errorf("INKPAD_SECRET_KEY must decode to 32 bytes, got %d", len(decoded))
		}
		secretKey = decoded
	}

	manifestInterval := 24 * time.Hour
	if v, ok := os.LookupEnv("INKPAD_MANIFEST_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("INKPAD_MANIFEST_INTERVAL has invalid duration %q: %w", v, err)
		}
		manifestInterval = parsed
	}

	operationTimeout := 2 * time.Minute
	if v, ok := os.LookupEnv("INKPAD_OPERATION_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("INKPAD_OPERATION_TIMEOUT has invalid duration %q: %w", v, err)
		}
		operationTimeout = parsed
	}

	return &Config{
		DBPath:           dbPath,
		SecretKey:        secretKey,
		ManifestInterval: manifestInterval,
		OperationTimeout: operationTimeout,
	}, nil
}
