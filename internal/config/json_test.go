package config

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("loads all keys", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"storage_driver":                  "postgres",
			"database_dsn":                    "postgres://db",
			"secret_key":                      "my_secret_key",
			"session_token_validity_duration": "90m",
			"password_hasher":                 "argon2id",
			"grant_policy":                    "retain",
			"log_level":                       "warn",
			"log_format":                      "json",
		})
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "postgres", cfg.StorageDriver)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 90*time.Minute, cfg.SessionTokenValidityDuration)
		assert.Equal(t, "argon2id", cfg.PasswordHasher)
		assert.Equal(t, "retain", cfg.GrantPolicy)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"storage_driver": "memory"})
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "memory", cfg.StorageDriver)
		assert.Equal(t, "realty.db", cfg.DatabaseDSN)
		assert.Equal(t, 30*time.Minute, cfg.SessionTokenValidityDuration)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{StorageDriver: "keep"}
		require.NoError(t, parseJson(cfg))
		assert.Equal(t, "keep", cfg.StorageDriver)
	})

	t.Run("missing file", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "absent.json")}
		err := parseJson(&Config{})
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		os.Args = []string{"testbin", "-c", path}
		assert.ErrorIs(t, parseJson(&Config{}), common.ErrValidation)
	})

	t.Run("load config reports errors", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "absent.json")}
		cfg, err := LoadConfig()
		assert.Error(t, err)
		assert.Nil(t, cfg)

		os.Args = []string{"testbin", "-t", "abc"}
		_, err = LoadConfig()
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("flags override json", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"storage_driver": "postgres", "log_level": "warn"})
		os.Args = []string{"testbin", "-c", path, "-s", "memory"}

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "memory", cfg.StorageDriver)
		assert.Equal(t, "warn", cfg.LogLevel)
	})
}
