// Package config handles realty runtime settings: defaults, an optional
// JSON overlay and command-line flags, applied in that order.
package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/realty/internal/common"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Password hashers.
const (
	HasherSHA256   = "sha256"
	HasherArgon2ID = "argon2id"
)

// Grant policies applied when an account is deleted.
const (
	GrantPolicyPrune  = "prune"
	GrantPolicyRetain = "retain"
)

// Config holds runtime settings for realty.
//
// Fields:
//   - StorageDriver: memory, sqlite or postgres.
//   - DatabaseDSN: sqlite file name or PostgreSQL DSN (pgx); ignored for memory.
//   - SecretKey: HMAC secret for session tokens (HS256). Do not use the default in prod.
//   - SessionTokenValidityDuration: lifetime of a session token.
//   - PasswordHasher: sha256 (unsalted digest) or argon2id.
//   - GrantPolicy: prune or retain grants of deleted accounts.
//   - LogLevel / LogFormat: slog level (debug, info, warn, error) and handler (json, text).
type Config struct {
	StorageDriver                string
	DatabaseDSN                  string
	SecretKey                    string
	SessionTokenValidityDuration time.Duration
	PasswordHasher               string
	GrantPolicy                  string
	LogLevel                     string
	LogFormat                    string
}

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside of local use.
func (c *Config) LoadDefaults() {
	c.StorageDriver = StorageSQLite
	c.DatabaseDSN = "realty.db"
	c.SecretKey = "secretKey"
	c.SessionTokenValidityDuration = 30 * time.Minute
	c.PasswordHasher = HasherSHA256
	c.GrantPolicy = GrantPolicyPrune
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate reports the first field holding an unsupported value.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", common.ErrValidation, c.StorageDriver)
	}

	switch c.PasswordHasher {
	case HasherSHA256, HasherArgon2ID:
	default:
		return fmt.Errorf("%w: unknown password hasher %q", common.ErrValidation, c.PasswordHasher)
	}

	switch c.GrantPolicy {
	case GrantPolicyPrune, GrantPolicyRetain:
	default:
		return fmt.Errorf("%w: unknown grant policy %q", common.ErrValidation, c.GrantPolicy)
	}

	if c.SecretKey == "" {
		return fmt.Errorf("%w: empty secret key", common.ErrValidation)
	}
	if c.SessionTokenValidityDuration <= 0 {
		return fmt.Errorf("%w: session token validity must be positive", common.ErrValidation)
	}

	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
