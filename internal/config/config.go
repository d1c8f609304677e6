package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultModel          = "google/gemini-2.5-pro-preview-05-06"
	DefaultBaseURL        = "https://openrouter.ai/api/v1"
	DefaultMaxBytes       = ByteSize(50 << 20)
	DefaultMaxTokens      = 4000
	DefaultTimeoutSeconds = 300
	DefaultServerAddr     = "127.0.0.1:8080"
)

// Accepted values for Mode and Format.
var (
	Modes   = []string{"standard", "refactor"}
	Formats = []string{"text", "markdown", "json"}
)

// Config represents the lamp configuration.
type Config struct {
	Model          string        `yaml:"model"`
	BaseURL        string        `yaml:"baseURL"`
	APIKey         string        `yaml:"-" json:"-"`
	Mode           string        `yaml:"mode"`
	Format         string        `yaml:"format"`
	MaxFileBytes   ByteSize      `yaml:"maxFileBytes"`
	MaxTotalBytes  ByteSize      `yaml:"maxTotalBytes"`
	MaxTokens      int           `yaml:"maxTokens"`
	Extensions     []string      `yaml:"extensions,omitempty"`
	TimeoutSeconds int           `yaml:"timeoutSeconds"`
	Referer        string        `yaml:"referer,omitempty"`
	Title          string        `yaml:"title,omitempty"`
	History        HistoryConfig `yaml:"history"`
	Privacy        PrivacyConfig `yaml:"privacy"`
	Server         ServerConfig  `yaml:"server"`
}

// HistoryConfig controls the request history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// PrivacyConfig controls secret redaction before submission.
type PrivacyConfig struct {
	RedactSecrets bool     `yaml:"redactSecrets"`
	RedactPaths   []string `yaml:"redactPaths,omitempty"`
}

// ServerConfig controls `lamp serve`.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// MaxUploadBytes bounds a multipart request body.
	MaxUploadBytes ByteSize `yaml:"maxUploadBytes"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Model:          DefaultModel,
		BaseURL:        DefaultBaseURL,
		Mode:           "standard",
		Format:         "text",
		MaxFileBytes:   DefaultMaxBytes,
		MaxTotalBytes:  DefaultMaxBytes,
		MaxTokens:      DefaultMaxTokens,
		TimeoutSeconds: DefaultTimeoutSeconds,
		Title:          "lamp",
		History: HistoryConfig{
			Enabled: true,
		},
		Privacy: PrivacyConfig{
			RedactPaths: []string{"**/.env", "**/*secrets*"},
		},
		Server: ServerConfig{
			Addr:           DefaultServerAddr,
			MaxUploadBytes: 2 * DefaultMaxBytes,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for lamp.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lamp"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "lamp"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "lamp"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "lamp"), nil
	default:
		return filepath.Join(home, ".config", "lamp"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// HistoryPath returns the history database location, honouring an explicit
// path from the config.
func HistoryPath(cfg Config) (string, error) {
	if cfg.History.Path != "" {
		return cfg.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadFile reads the config file on top of base. A missing file returns base
// unchanged. Keys absent from the file keep their base values.
func LoadFile(base Config) (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return loadFrom(path, base)
}

func loadFrom(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the config file. The API key is never written.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return saveTo(path, cfg)
}

func saveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadFile(Default())
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps environment variables onto SetField keys.
var envKeys = []struct {
	env string
	key string
}{
	{"LAMP_MODEL", "model"},
	{"LAMP_BASE_URL", "baseURL"},
	{"LAMP_MODE", "mode"},
	{"LAMP_FORMAT", "format"},
	{"LAMP_MAX_FILE_BYTES", "maxFileBytes"},
	{"LAMP_MAX_TOTAL_BYTES", "maxTotalBytes"},
	{"LAMP_MAX_TOKENS", "maxTokens"},
	{"LAMP_EXTENSIONS", "extensions"},
	{"LAMP_TIMEOUT_SECONDS", "timeoutSeconds"},
}

func mergeEnv(cfg *Config) error {
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("LAMP_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := SetField(cfg, e.key, v); err != nil {
			return fmt.Errorf("%s: %w", e.env, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return fmt.Errorf("--%s: %w", key, err)
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "model":
		cfg.Model = value
	case "baseURL":
		cfg.BaseURL = strings.TrimRight(value, "/")
	case "mode":
		cfg.Mode = strings.ToLower(value)
	case "format":
		cfg.Format = strings.ToLower(value)
	case "maxFileBytes":
		n, err := ParseByteSize(value)
		if err != nil {
			return err
		}
		cfg.MaxFileBytes = n
	case "maxTotalBytes":
		n, err := ParseByteSize(value)
		if err != nil {
			return err
		}
		cfg.MaxTotalBytes = n
	case "maxTokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("maxTokens must be an integer: %w", err)
		}
		cfg.MaxTokens = n
	case "extensions":
		cfg.Extensions = splitList(value)
	case "timeoutSeconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("timeoutSeconds must be an integer: %w", err)
		}
		cfg.TimeoutSeconds = n
	case "referer":
		cfg.Referer = value
	case "title":
		cfg.Title = value
	case "history.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("history.enabled must be a boolean: %w", err)
		}
		cfg.History.Enabled = b
	case "history.path":
		cfg.History.Path = value
	case "privacy.redactSecrets":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("privacy.redactSecrets must be a boolean: %w", err)
		}
		cfg.Privacy.RedactSecrets = b
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	case "server.addr":
		cfg.Server.Addr = value
	case "server.maxUploadBytes":
		n, err := ParseByteSize(value)
		if err != nil {
			return err
		}
		cfg.Server.MaxUploadBytes = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Validate reports the first invalid setting.
func Validate(cfg Config) error {
	switch {
	case strings.TrimSpace(cfg.Model) == "":
		return errors.New("model must not be empty")
	case !slices.Contains(Modes, cfg.Mode):
		return fmt.Errorf("mode must be one of %s, got %q", strings.Join(Modes, ", "), cfg.Mode)
	case !slices.Contains(Formats, cfg.Format):
		return fmt.Errorf("format must be one of %s, got %q", strings.Join(Formats, ", "), cfg.Format)
	case cfg.MaxFileBytes <= 0:
		return errors.New("maxFileBytes must be positive")
	case cfg.MaxTotalBytes <= 0:
		return errors.New("maxTotalBytes must be positive")
	case cfg.MaxTokens <= 0:
		return errors.New("maxTokens must be positive")
	case cfg.TimeoutSeconds <= 0:
		return errors.New("timeoutSeconds must be positive")
	case !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://"):
		return fmt.Errorf("baseURL must be an http(s) URL, got %q", cfg.BaseURL)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
