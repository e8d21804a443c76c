// ABOUTME: Configuration loading and parsing for the gradient chat client
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/HarshalVankudre/digitalocean/internal/auth"
)

// EnvConfigPath names the environment variable that points at a config file.
const EnvConfigPath = "GRADIENT_CONFIG"

// Config represents the complete client configuration
type Config struct {
	Backend BackendConfig `yaml:"backend" toml:"backend"`
	Auth    AuthConfig    `yaml:"auth" toml:"auth"`
	Session SessionConfig `yaml:"session" toml:"session"`
	Stream  StreamConfig  `yaml:"stream" toml:"stream"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Render  RenderConfig  `yaml:"render" toml:"render"`
}

// BackendConfig holds the conversation backend location
type BackendConfig struct {
	BaseURL string        `yaml:"base_url" toml:"base_url"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// AuthConfig holds bearer token configuration. Token, when set, wins over
// the environment variable and the token file.
type AuthConfig struct {
	Token     string `yaml:"token" toml:"token"`
	TokenEnv  string `yaml:"token_env" toml:"token_env"`
	TokenFile string `yaml:"token_file" toml:"token_file"`
}

// SessionConfig holds durable client state configuration
type SessionConfig struct {
	Path         string `yaml:"path" toml:"path"`
	DefaultTitle string `yaml:"default_title" toml:"default_title"`
}

// StreamConfig holds reply stream parsing configuration
type StreamConfig struct {
	Sentinel   string `yaml:"sentinel" toml:"sentinel"`
	Trim       bool   `yaml:"trim" toml:"trim"`
	ReadBuffer int    `yaml:"read_buffer" toml:"read_buffer"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// RenderConfig holds terminal rendering configuration
type RenderConfig struct {
	Style    string `yaml:"style" toml:"style"`
	WordWrap int    `yaml:"word_wrap" toml:"word_wrap"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 60 * time.Second,
		},
		Auth: AuthConfig{
			TokenEnv:  auth.DefaultTokenEnv,
			TokenFile: auth.DefaultTokenPath(),
		},
		Session: SessionConfig{
			Path:         defaultStatePath(),
			DefaultTitle: "New chat",
		},
		Stream: StreamConfig{
			Sentinel:   "[DONE]",
			ReadBuffer: 4096,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Render: RenderConfig{
			Style:    "auto",
			WordWrap: 100,
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Settings absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Defaults()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.Session.Path = expandHome(cfg.Session.Path)
	cfg.Auth.TokenFile = expandHome(cfg.Auth.TokenFile)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadDefault loads the file chosen by ResolvePath. A missing file at the
// default location yields Defaults(); a missing explicit file is an error.
func LoadDefault(flagPath string) (*Config, error) {
	path, explicit := ResolvePath(flagPath)
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			cfg := Defaults()
			return cfg, cfg.Validate()
		}
	}
	return Load(path)
}

// ResolvePath picks the config file: the flag value, then $GRADIENT_CONFIG,
// then $XDG_CONFIG_HOME/gradient/client.yaml. explicit is false only for
// the last.
func ResolvePath(flagPath string) (path string, explicit bool) {
	if flagPath != "" {
		return flagPath, true
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, true
	}
	return filepath.Join(configDir(), "gradient", "client.yaml"), false
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

var (
	validLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validFormats = map[string]bool{"text": true, "json": true}
)

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("backend.base_url is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend.base_url must use http or https scheme")
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}

	if c.Session.Path == "" {
		return fmt.Errorf("session.path is required")
	}

	if c.Stream.ReadBuffer < 0 {
		return fmt.Errorf("stream.read_buffer must not be negative")
	}

	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	if c.Render.WordWrap < 0 {
		return fmt.Errorf("render.word_wrap must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Backend.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Backend.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.Backend.TimeoutRaw, err)
		}
		cfg.Backend.Timeout = d
	}
	return nil
}

func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

func defaultStatePath() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "gradient", "client.db")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
