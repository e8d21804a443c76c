// ABOUTME: Bearer token sources for outgoing backend requests
// ABOUTME: Reads the token from an env var or a token file, synchronously, on every call

package auth

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultTokenEnv is the environment variable checked first for a token.
const DefaultTokenEnv = "GRADIENT_TOKEN"

// TokenSource yields the bearer token for the next request. An empty string
// means no token is available; requests are still sent.
type TokenSource interface {
	Token() string
}

// StaticSource always returns the same token.
type StaticSource string

// Token implements TokenSource.
func (s StaticSource) Token() string {
	return string(s)
}

// EnvFileSource reads the token from an environment variable, falling back
// to a file. Both are re-read on every call so that a login in another
// terminal is picked up without restarting.
type EnvFileSource struct {
	Env  string
	Path string
}

// NewEnvFileSource returns a source using env (DefaultTokenEnv if empty)
// and path (DefaultTokenPath() if empty).
func NewEnvFileSource(env, path string) *EnvFileSource {
	if env == "" {
		env = DefaultTokenEnv
	}
	if path == "" {
		path = DefaultTokenPath()
	}
	return &EnvFileSource{Env: env, Path: path}
}

// Token implements TokenSource.
func (s *EnvFileSource) Token() string {
	if token := os.Getenv(s.Env); token != "" {
		return token
	}
	if s.Path == "" {
		return ""
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// DefaultTokenPath returns $XDG_CONFIG_HOME/gradient/token, falling back to
// ~/.config/gradient/token.
func DefaultTokenPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "gradient", "token")
}
