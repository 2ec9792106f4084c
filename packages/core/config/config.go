package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every error caused by a malformed configuration value.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the reqline configuration
type Config struct {
	Timeout         int               `yaml:"timeout,omitempty" json:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool             `yaml:"followRedirects,omitempty" json:"followRedirects,omitempty"`
	MaxRedirects    int               `yaml:"maxRedirects,omitempty" json:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `yaml:"validateSSL,omitempty" json:"validateSSL,omitempty"`
	Proxy           string            `yaml:"proxy,omitempty" json:"proxy,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"` // Default headers for all requests
	FailOnStatus    *bool             `yaml:"failOnStatus,omitempty" json:"failOnStatus,omitempty"`
	Output          string            `yaml:"output,omitempty" json:"output,omitempty"` // console, json or yaml
	Parallel        *bool             `yaml:"parallel,omitempty" json:"parallel,omitempty"`
	Concurrency     int               `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`
	Bail            *bool             `yaml:"bail,omitempty" json:"bail,omitempty"`
	Verbose         *bool             `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	NoColor         *bool             `yaml:"noColor,omitempty" json:"noColor,omitempty"`
	History         string            `yaml:"history,omitempty" json:"history,omitempty"` // SQLite path, empty disables history
	Server          ServerConfig      `yaml:"server,omitempty" json:"server,omitempty"`
}

// ServerConfig configures `reqline serve`.
type ServerConfig struct {
	Host            string  `yaml:"host,omitempty" json:"host,omitempty"`
	Port            int     `yaml:"port,omitempty" json:"port,omitempty"`
	RateLimit       float64 `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"` // requests per second, 0 disables limiting
	Burst           int     `yaml:"burst,omitempty" json:"burst,omitempty"`
	MaxBodyBytes    int64   `yaml:"maxBodyBytes,omitempty" json:"maxBodyBytes,omitempty"`
	ShutdownTimeout int     `yaml:"shutdownTimeout,omitempty" json:"shutdownTimeout,omitempty"` // milliseconds
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetFailOnStatus returns the fail on status setting, defaulting to true
func (c *Config) GetFailOnStatus() bool {
	return getBool(c.FailOnStatus, true)
}

// GetParallel returns the parallel setting, defaulting to false
func (c *Config) GetParallel() bool {
	return getBool(c.Parallel, false)
}

// GetBail returns the bail setting, defaulting to false
func (c *Config) GetBail() bool {
	return getBool(c.Bail, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	".reqline.yaml",
	".reqline.yml",
	"reqline.yaml",
	".reqline.json",
	"reqline.config.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file. JSON files are
// read with the YAML decoder, which accepts them as well.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

// Validate reports values that cannot be used.
func (c *Config) Validate() error {
	var problems []string

	if c.Timeout < 0 {
		problems = append(problems, "timeout must not be negative")
	}
	if c.MaxRedirects < 0 {
		problems = append(problems, "maxRedirects must not be negative")
	}
	if c.Concurrency < 0 {
		problems = append(problems, "concurrency must not be negative")
	}
	switch c.Output {
	case "", "console", "json", "yaml":
	default:
		problems = append(problems, fmt.Sprintf("unknown output format %q", c.Output))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server port %d out of range", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		problems = append(problems, "server rateLimit must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.Concurrency > 0 {
		result.Concurrency = other.Concurrency
	}
	if other.History != "" {
		result.History = other.History
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.FailOnStatus != nil {
		result.FailOnStatus = other.FailOnStatus
	}
	if other.Parallel != nil {
		result.Parallel = other.Parallel
	}
	if other.Bail != nil {
		result.Bail = other.Bail
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Merge headers
	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	if other.Server.Host != "" {
		result.Server.Host = other.Server.Host
	}
	if other.Server.Port > 0 {
		result.Server.Port = other.Server.Port
	}
	if other.Server.RateLimit > 0 {
		result.Server.RateLimit = other.Server.RateLimit
	}
	if other.Server.Burst > 0 {
		result.Server.Burst = other.Server.Burst
	}
	if other.Server.MaxBodyBytes > 0 {
		result.Server.MaxBodyBytes = other.Server.MaxBodyBytes
	}
	if other.Server.ShutdownTimeout > 0 {
		result.Server.ShutdownTimeout = other.Server.ShutdownTimeout
	}

	return &result
}

// SaveConfig saves the configuration to a file, as JSON when the name ends
// in .json and as YAML otherwise.
func (c *Config) SaveConfig(path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
