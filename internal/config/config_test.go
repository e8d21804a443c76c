// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults, path resolution and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "client.yaml", `
backend:
  base_url: "https://chat.example.com/api"
  timeout: "15s"
auth:
  token_env: "MY_TOKEN"
session:
  path: "/tmp/state.db"
  default_title: "Untitled"
stream:
  sentinel: "[END]"
  trim: true
  read_buffer: 128
logging:
  level: "debug"
  format: "json"
render:
  style: "dark"
  word_wrap: 80
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "MY_TOKEN", cfg.Auth.TokenEnv)
	assert.Equal(t, "/tmp/state.db", cfg.Session.Path)
	assert.Equal(t, "Untitled", cfg.Session.DefaultTitle)
	assert.Equal(t, StreamConfig{Sentinel: "[END]", Trim: true, ReadBuffer: 128}, cfg.Stream)
	assert.Equal(t, LoggingConfig{Level: "debug", Format: "json"}, cfg.Logging)
	assert.Equal(t, RenderConfig{Style: "dark", WordWrap: 80}, cfg.Render)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "client.toml", `
[backend]
base_url = "http://127.0.0.1:9000"
timeout = "2m"

[stream]
sentinel = "[STOP]"

[logging]
level = "info"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Backend.Timeout)
	assert.Equal(t, "[STOP]", cfg.Stream.Sentinel)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format, "unset keys keep defaults")
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "client.yaml", "backend:\n  base_url: \"http://example.test\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	def := Defaults()
	assert.Equal(t, def.Backend.Timeout, cfg.Backend.Timeout)
	assert.Equal(t, def.Session.DefaultTitle, cfg.Session.DefaultTitle)
	assert.Equal(t, def.Stream, cfg.Stream)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("GRADIENT_TEST_URL", "https://expanded.example.com")
	t.Setenv("GRADIENT_TEST_TOKEN", "secret-token")
	path := writeFile(t, "client.yaml", `
backend:
  base_url: "${GRADIENT_TEST_URL}"
auth:
  token: "${GRADIENT_TEST_TOKEN}"
  token_file: "${GRADIENT_TEST_UNSET}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://expanded.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, "secret-token", cfg.Auth.Token)
	assert.Empty(t, cfg.Auth.TokenFile, "unset variables expand to empty")
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := writeFile(t, "client.yaml", "session:\n  path: \"~/state/client.db\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "state", "client.db"), cfg.Session.Path)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad yaml", "c.yaml", "backend: [", "parsing config file"},
		{"bad toml", "c.toml", "[backend\n", "parsing config file"},
		{"bad duration", "c.yaml", "backend:\n  timeout: \"soon\"\n", "parsing timeout"},
		{"zero timeout", "c.yaml", "backend:\n  timeout: \"0s\"\n", "backend.timeout must be positive"},
		{"bad scheme", "c.yaml", "backend:\n  base_url: \"ftp://x\"\n", "http or https"},
		{"empty base url", "c.yaml", "backend:\n  base_url: \"\"\n", "backend.base_url is required"},
		{"bad level", "c.yaml", "logging:\n  level: \"loud\"\n", "logging.level"},
		{"bad format", "c.yaml", "logging:\n  format: \"xml\"\n", "logging.format"},
		{"negative buffer", "c.yaml", "stream:\n  read_buffer: -1\n", "stream.read_buffer"},
		{"negative wrap", "c.yaml", "render:\n  word_wrap: -5\n", "render.word_wrap"},
		{"empty session path", "c.yaml", "session:\n  path: \"\"\n", "session.path is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestResolvePath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")

	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/env/client.yaml")
		path, explicit := ResolvePath("/flag/client.yaml")
		assert.Equal(t, "/flag/client.yaml", path)
		assert.True(t, explicit)
	})

	t.Run("env next", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "/env/client.yaml")
		path, explicit := ResolvePath("")
		assert.Equal(t, "/env/client.yaml", path)
		assert.True(t, explicit)
	})

	t.Run("xdg default", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")
		path, explicit := ResolvePath("")
		assert.Equal(t, filepath.Join("/xdg", "gradient", "client.yaml"), path)
		assert.False(t, explicit)
	})
}

func TestLoadDefault_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvConfigPath, "")

	cfg, err := LoadDefault("")
	require.NoError(t, err)
	assert.Equal(t, Defaults().Backend, cfg.Backend)
}

func TestLoadDefault_MissingExplicitFileFails(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	_, err := LoadDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDefault_ReadsXDGFile(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv(EnvConfigPath, "")
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "gradient"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "gradient", "client.yaml"),
		[]byte("session:\n  default_title: \"From XDG\"\n"), 0o644))

	cfg, err := LoadDefault("")
	require.NoError(t, err)
	assert.Equal(t, "From XDG", cfg.Session.DefaultTitle)
}

func TestDefaults_Validate(t *testing.T) {
	assert.NoError(t, Defaults().Validate())
}
