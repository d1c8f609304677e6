package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "google/gemini-2.5-pro-preview-05-06", cfg.Model)
	assert.Equal(t, "standard", cfg.Mode)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, ByteSize(50*1024*1024), cfg.MaxFileBytes)
	assert.Equal(t, ByteSize(50*1024*1024), cfg.MaxTotalBytes)
	assert.Equal(t, 4000, cfg.MaxTokens)
	assert.False(t, cfg.Privacy.RedactSecrets, "redaction is opt-in")
	assert.True(t, cfg.History.Enabled)
	assert.NoError(t, Validate(cfg))
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-env")
	t.Setenv("LAMP_MODEL", "x-ai/grok-4")
	t.Setenv("LAMP_MODE", "Refactor")
	t.Setenv("LAMP_FORMAT", "json")
	t.Setenv("LAMP_MAX_FILE_BYTES", "10 MiB")
	t.Setenv("LAMP_MAX_TOTAL_BYTES", "1048576")
	t.Setenv("LAMP_MAX_TOKENS", "8000")
	t.Setenv("LAMP_EXTENSIONS", ".go, .py,,.md")
	t.Setenv("LAMP_TIMEOUT_SECONDS", "30")

	cfg := Default()
	require.NoError(t, mergeEnv(&cfg))

	assert.Equal(t, "sk-or-env", cfg.APIKey)
	assert.Equal(t, "x-ai/grok-4", cfg.Model)
	assert.Equal(t, "refactor", cfg.Mode)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, ByteSize(10<<20), cfg.MaxFileBytes)
	assert.Equal(t, ByteSize(1<<20), cfg.MaxTotalBytes)
	assert.Equal(t, 8000, cfg.MaxTokens)
	assert.Equal(t, []string{".go", ".py", ".md"}, cfg.Extensions)
	assert.Equal(t, 30, cfg.TimeoutSeconds)
}

func TestMergeEnv_LampKeyWins(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "from-openrouter")
	t.Setenv("LAMP_API_KEY", "from-lamp")

	cfg := Default()
	require.NoError(t, mergeEnv(&cfg))
	assert.Equal(t, "from-lamp", cfg.APIKey)
}

func TestMergeEnv_InvalidValue(t *testing.T) {
	t.Setenv("LAMP_MAX_TOKENS", "lots")

	cfg := Default()
	err := mergeEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LAMP_MAX_TOKENS")
}

func TestMergeOverrides(t *testing.T) {
	cfg := Default()
	err := mergeOverrides(&cfg, map[string]string{
		"model":        "openai/gpt-5",
		"maxFileBytes": "2MB",
		"format":       "",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-5", cfg.Model)
	assert.Equal(t, ByteSize(2_000_000), cfg.MaxFileBytes)
	assert.Equal(t, "text", cfg.Format, "empty override must not clear the value")
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "model: anthropic/claude-sonnet-4.5\nmaxFileBytes: 5 MiB\nprivacy:\n  redactSecrets: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := loadFrom(path, Default())
	require.NoError(t, err)

	assert.Equal(t, "anthropic/claude-sonnet-4.5", cfg.Model)
	assert.Equal(t, ByteSize(5<<20), cfg.MaxFileBytes)
	assert.Equal(t, DefaultMaxBytes, cfg.MaxTotalBytes)
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
	assert.True(t, cfg.Privacy.RedactSecrets)
	assert.Equal(t, []string{"**/.env", "**/*secrets*"}, cfg.Privacy.RedactPaths)
}

func TestLoadFrom_Missing(t *testing.T) {
	cfg, err := loadFrom(filepath.Join(t.TempDir(), "nope.yaml"), Default())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFrom_BadByteSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maxTotalBytes: huge\n"), 0o600))

	_, err := loadFrom(path, Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid byte size")
}

func TestSaveTo_OmitsAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lamp", "config.yaml")
	cfg := Default()
	cfg.APIKey = "sk-or-secret"

	require.NoError(t, saveTo(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-or-secret")
	assert.Contains(t, string(data), "maxFileBytes: 50 MiB")

	loaded, err := loadFrom(path, Config{})
	require.NoError(t, err)
	cfg.APIKey = ""
	assert.Equal(t, cfg, loaded)
}

func TestConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lamp", "config.yaml"), path)

	hp, err := HistoryPath(Default())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lamp", "history.db"), hp)
}

func TestLoad_FileEnvOverridePrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lamp"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lamp", "config.yaml"),
		[]byte("model: from-file\nmaxTokens: 1000\nformat: markdown\n"), 0o600))
	t.Setenv("LAMP_MAX_TOKENS", "2000")

	cfg, err := Load(map[string]string{"format": "json"})
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Model)
	assert.Equal(t, 2000, cfg.MaxTokens)
	assert.Equal(t, "json", cfg.Format)
}

func TestSetField(t *testing.T) {
	cfg := Default()
	require.NoError(t, SetField(&cfg, "baseURL", "http://localhost:9999/v1/"))
	assert.Equal(t, "http://localhost:9999/v1", cfg.BaseURL)

	require.NoError(t, SetField(&cfg, "history.enabled", "false"))
	assert.False(t, cfg.History.Enabled)

	require.NoError(t, SetField(&cfg, "server.maxUploadBytes", "1 GiB"))
	assert.Equal(t, ByteSize(1<<30), cfg.Server.MaxUploadBytes)

	assert.Error(t, SetField(&cfg, "maxTokens", "four"))
	assert.Error(t, SetField(&cfg, "privacy.redactSecrets", "maybe"))
	assert.EqualError(t, SetField(&cfg, "provider", "openai"), "unknown config key: provider")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Model = " " }},
		{"bad mode", func(c *Config) { c.Mode = "security" }},
		{"bad format", func(c *Config) { c.Format = "sarif" }},
		{"zero file limit", func(c *Config) { c.MaxFileBytes = 0 }},
		{"zero total limit", func(c *Config) { c.MaxTotalBytes = 0 }},
		{"zero tokens", func(c *Config) { c.MaxTokens = 0 }},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }},
		{"bad url", func(c *Config) { c.BaseURL = "openrouter.ai" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestByteSize_YAML(t *testing.T) {
	var v struct {
		A ByteSize `yaml:"a"`
		B ByteSize `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 1024\nb: 1.5 KiB\n"), &v))
	assert.Equal(t, ByteSize(1024), v.A)
	assert.Equal(t, ByteSize(1536), v.B)

	err := yaml.Unmarshal([]byte("a: [1, 2]\n"), &v)
	assert.Error(t, err)
}

func TestParseByteSize(t *testing.T) {
	n, err := ParseByteSize("50 MiB")
	require.NoError(t, err)
	assert.Equal(t, ByteSize(52428800), n)
	assert.Equal(t, "50 MiB", n.String())

	_, err = ParseByteSize("")
	assert.Error(t, err)
	_, err = ParseByteSize("-5")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LAMP_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("LAMP_TEST_DOTENV", "")
	os.Unsetenv("LAMP_TEST_DOTENV")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("LAMP_TEST_DOTENV"))

	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
}
