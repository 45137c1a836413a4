package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "EVMGR_"

// LoadDotEnv loads variables from a .env file into the process environment.
// Variables that are already set are not overridden. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays EVMGR_* environment variables onto cfg. Unset variables
// leave the corresponding setting unchanged.
//
// Examples: EVMGR_EVENT_QUEUE_SIZE=16, EVMGR_LOG_LEVEL=debug,
// EVMGR_PRODUCERS_WATCH_PATHS=/tmp/a,/tmp/b.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("applying environment: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: defaults, then the file at
// path (if any), then the .env file at dotenvPath (if present), then the
// environment. The result is validated.
func Resolve(path, dotenvPath string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}

	if err := LoadDotEnv(dotenvPath); err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
