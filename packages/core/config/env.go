package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvTimeout   = "REQLINE_TIMEOUT"
	EnvProxy     = "REQLINE_PROXY"
	EnvInsecure  = "REQLINE_INSECURE"
	EnvHost      = "REQLINE_HOST"
	EnvPort      = "REQLINE_PORT"
	EnvRateLimit = "REQLINE_RATE_LIMIT"
	EnvHistory   = "REQLINE_HISTORY"
	EnvNoColor   = "REQLINE_NO_COLOR"
)

// LoadDotEnv loads the .env file in dir, if there is one. Variables that are
// already set keep their value.
func LoadDotEnv(dir string) error {
	err := godotenv.Load(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Load reads .env from dir, then the config file at path (or the first one
// found in dir) and finally applies environment overrides.
func Load(dir, path string) (*Config, error) {
	if err := LoadDotEnv(dir); err != nil {
		return nil, err
	}

	var cfg *Config
	var err error
	if path != "" {
		cfg, err = loadConfigFromFile(path)
	} else {
		cfg, err = FindAndLoadConfig(dir)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields with the REQLINE_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		val, ok := lookup(key)
		if !ok {
			return "", false
		}
		val = strings.TrimSpace(val)
		return val, val != ""
	}

	if val, ok := get(EnvTimeout); ok {
		ms, err := parseTimeout(val)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, EnvTimeout, val, err)
		}
		c.Timeout = ms
	}
	if val, ok := get(EnvProxy); ok {
		c.Proxy = val
	}
	if val, ok := get(EnvInsecure); ok {
		c.ValidateSSL = BoolPtr(!parseBool(val))
	}
	if val, ok := get(EnvHost); ok {
		c.Server.Host = val
	}
	if val, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(val)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("%w: %s=%q is not a port", ErrInvalid, EnvPort, val)
		}
		c.Server.Port = port
	}
	if val, ok := get(EnvRateLimit); ok {
		rps, err := strconv.ParseFloat(val, 64)
		if err != nil || rps < 0 {
			return fmt.Errorf("%w: %s=%q is not a rate", ErrInvalid, EnvRateLimit, val)
		}
		c.Server.RateLimit = rps
	}
	if val, ok := get(EnvHistory); ok {
		c.History = val
	}
	if val, ok := get(EnvNoColor); ok {
		c.NoColor = BoolPtr(parseBool(val))
	}

	return nil
}

// parseTimeout accepts a Go duration ("5s") or a bare number of milliseconds.
func parseTimeout(val string) (int, error) {
	if ms, err := strconv.Atoi(val); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative timeout")
		}
		return ms, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative timeout")
	}
	return int(d.Milliseconds()), nil
}

func parseBool(val string) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
