package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// BackendConfig describes how to reach the temp-mail REST API.
type BackendConfig struct {
	// BaseURL is the root URL of the backend, e.g. "http://localhost:8080".
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP request.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// Timeout returns the HTTP timeout as a duration.
func (c BackendConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSec, 30)
}

// PollConfig controls the inbox poll loop.
type PollConfig struct {
	// IntervalSec is the period of the silent background refresh.
	IntervalSec int `mapstructure:"interval_sec" yaml:"interval_sec"`

	// FetchTimeoutSec bounds a single fetch so a hung backend cannot
	// stall the loop.
	FetchTimeoutSec int `mapstructure:"fetch_timeout_sec" yaml:"fetch_timeout_sec"`
}

func (c PollConfig) Interval() time.Duration {
	return seconds(c.IntervalSec, 10)
}

func (c PollConfig) FetchTimeout() time.Duration {
	return seconds(c.FetchTimeoutSec, 30)
}

// StoreConfig locates the local sqlite database.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the file logger. The terminal belongs to the TUI, so
// logs never go to stderr while it runs.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	Path  string `mapstructure:"path" yaml:"path"`
}

// ArchiveConfig holds the personal IMAP account messages can be copied to.
// The password is never stored here; see the credential package.
type ArchiveConfig struct {
	IMAPHost string `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort int    `mapstructure:"imap_port" yaml:"imap_port"`
	IMAPUser string `mapstructure:"imap_user" yaml:"imap_user"`
	Folder   string `mapstructure:"folder" yaml:"folder"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`
}

// Addr returns host:port for dialing.
func (c ArchiveConfig) Addr() string {
	port := c.IMAPPort
	if port == 0 {
		if c.TLS {
			port = 993
		} else {
			port = 143
		}
	}
	return fmt.Sprintf("%s:%d", c.IMAPHost, port)
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// EnvPrefix is prepended to every environment override, so
// backend.base_url is read from TEMPMAIL_BACKEND_BASE_URL.
const EnvPrefix = "TEMPMAIL"

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

func userDir(parts ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(append([]string{"."}, parts[len(parts)-1])...)
	}
	return filepath.Join(append([]string{home}, parts...)...)
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/tempmail/config.yaml.
func DefaultConfigPath() string {
	return userDir(".config", "tempmail", "config.yaml")
}

// DefaultStorePath returns ~/.local/share/tempmail/tempmail.db.
func DefaultStorePath() string {
	return userDir(".local", "share", "tempmail", "tempmail.db")
}

// DefaultLogPath returns ~/.local/state/tempmail/tempmail.log.
func DefaultLogPath() string {
	return userDir(".local", "state", "tempmail", "tempmail.log")
}

// NewViper returns a viper instance with every default registered and
// environment overrides enabled. Callers may bind flags to it before
// passing it to LoadConfigWith.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.timeout_sec", 30)
	v.SetDefault("poll.interval_sec", 10)
	v.SetDefault("poll.fetch_timeout_sec", 30)
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", DefaultLogPath())
	v.SetDefault("archive.imap_host", "")
	v.SetDefault("archive.imap_port", 0)
	v.SetDefault("archive.imap_user", "")
	v.SetDefault("archive.folder", "TempMail")
	v.SetDefault("archive.tls", true)
	v.SetDefault("display.theme", "default")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults and environment overrides apply.
func LoadConfig(path string) (*AppConfig, error) {
	return LoadConfigWith(NewViper(), path)
}

// LoadConfigWith is LoadConfig on a caller-prepared viper instance.
func LoadConfigWith(v *viper.Viper, path string) (*AppConfig, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Backend.BaseURL == "" {
		return nil, errors.New("backend.base_url must not be empty")
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	return cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	var pathErr *os.PathError
	return errors.As(err, &pathErr) && errors.Is(pathErr, os.ErrNotExist)
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("backend", cfg.Backend)
	v.Set("poll", cfg.Poll)
	v.Set("store", cfg.Store)
	v.Set("log", cfg.Log)
	v.Set("archive", cfg.Archive)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
