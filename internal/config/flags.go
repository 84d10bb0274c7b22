package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/realty/internal/common"
	"github.com/dmitrijs2005/realty/internal/flagx"
)

// Flags lists every command-line flag consumed by the configuration layer,
// including the JSON file selectors. Subcommand parsers strip these first.
var Flags = []string{"-c", "-config", "-s", "-d", "-k", "-t", "-x", "-g", "-l", "-f"}

// parseFlags populates Config fields from command-line flags.
//
//	-s string   storage driver (memory, sqlite, postgres)
//	-d string   database DSN
//	-k string   session token secret key
//	-t int      session token validity, minutes
//	-x string   password hasher (sha256, argon2id)
//	-g string   grant policy on account deletion (prune, retain)
//	-l string   log level
//	-f string   log format (json, text)
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-d", "-k", "-t", "-x", "-g", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.StorageDriver, "s", config.StorageDriver, "storage driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "k", config.SecretKey, "session token secret key")

	tokenValidity := fs.Int("t", int(config.SessionTokenValidityDuration.Minutes()), "session token validity (in minutes)")

	fs.StringVar(&config.PasswordHasher, "x", config.PasswordHasher, "password hasher")
	fs.StringVar(&config.GrantPolicy, "g", config.GrantPolicy, "grant policy on account deletion")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	config.SessionTokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	return nil
}
