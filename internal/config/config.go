package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vedsharma/momentscli/internal/logger"
	"github.com/vedsharma/momentscli/internal/sdk"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file
const (
	EnvAPIKey      = "MOMENTSCLI_API_KEY"
	EnvCatalogFile = "MOMENTSCLI_CATALOG_FILE"
)

const (
	dirName  = ".momentscli"
	fileName = "config.yaml"
)

// Config is the momentscli configuration file
type Config struct {
	APIKey      string        `yaml:"api_key"`
	CatalogFile string        `yaml:"catalog_file"`
	History     HistoryConfig `yaml:"history"`
	Log         LogConfig     `yaml:"log"`
	Server      ServerConfig  `yaml:"server"`
	SDK         SDKConfig     `yaml:"sdk"`
}

// HistoryConfig controls the local execution history
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit"`
}

// LogConfig mirrors logger.Config
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // console, json
	Output     string `yaml:"output"` // stderr, file, both
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
}

// ServerConfig is the listen address of the portal
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// SDKConfig configures the launcher embedded in the showcase
type SDKConfig struct {
	AccountID string `yaml:"account_id"`
	AutoShow  bool   `yaml:"auto_show"`
	ScriptURL string `yaml:"script_url"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		History: HistoryConfig{Enabled: false, Limit: 100},
		Log: LogConfig{
			Level:      "warn",
			Format:     "console",
			Output:     "stderr",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		},
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080},
		SDK: SDKConfig{
			AccountID: "ffa59da09972e55e",
			AutoShow:  true,
			ScriptURL: "https://cdn.pubtailer.com/launcher.min.js",
		},
	}
}

// Dir returns ~/.momentscli
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// DefaultPath returns ~/.momentscli/config.yaml
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the file at path over the defaults and then applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("config file not found, using defaults")
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.APIKey = v
	}
	if v, ok := lookup(EnvCatalogFile); ok && v != "" {
		c.CatalogFile = v
	}
}

// Validate rejects values that cannot be used
func (c *Config) Validate() error {
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}

// Logger converts the log section for logger.Init
func (c *Config) Logger() *logger.Config {
	return &logger.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		Output:     c.Log.Output,
		FilePath:   c.Log.FilePath,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
	}
}

// Addr returns host:port for the portal
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SDKSettings converts the sdk section for the launcher
func (c *Config) SDKSettings() sdk.Settings {
	return sdk.Settings{
		AccountID: c.SDK.AccountID,
		AutoShow:  c.SDK.AutoShow,
		ScriptURL: c.SDK.ScriptURL,
	}
}
