package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/flagx"
	"github.com/dmitrijs2005/realty/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "30m" style strings or integer nanoseconds.
type JsonConfig struct {
	StorageDriver                string         `json:"storage_driver"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	SessionTokenValidityDuration timex.Duration `json:"session_token_validity_duration"`
	PasswordHasher               string         `json:"password_hasher"`
	GrantPolicy                  string         `json:"grant_policy"`
	LogLevel                     string         `json:"log_level"`
	LogFormat                    string         `json:"log_format"`
}

// parseJson overlays config with the file named by -c/-config. Keys missing
// from the file keep their current values.
func parseJson(config *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("%w: config %s: %v", common.ErrValidation, jsonConfigFile, err)
	}

	setIfNotEmpty(&config.StorageDriver, c.StorageDriver)
	setIfNotEmpty(&config.DatabaseDSN, c.DatabaseDSN)
	setIfNotEmpty(&config.SecretKey, c.SecretKey)
	setIfNotEmpty(&config.PasswordHasher, c.PasswordHasher)
	setIfNotEmpty(&config.GrantPolicy, c.GrantPolicy)
	setIfNotEmpty(&config.LogLevel, c.LogLevel)
	setIfNotEmpty(&config.LogFormat, c.LogFormat)

	if c.SessionTokenValidityDuration.Duration != 0 {
		config.SessionTokenValidityDuration = c.SessionTokenValidityDuration.Duration
	}
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
