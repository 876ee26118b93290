package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	EndpointURL          string        `mapstructure:"endpoint_url"`
	WatchPath            string        `mapstructure:"watch_path"`
	MediaRoot            string        `mapstructure:"media_root"`
	DefaultWatchPath     string        `mapstructure:"default_watch_path"`
	MaxConcurrentUploads int           `mapstructure:"max_concurrent_uploads"`
	QueueSize            int           `mapstructure:"queue_size"`
	UploadTimeout        time.Duration `mapstructure:"upload_timeout"`
	KeepAliveInterval    time.Duration `mapstructure:"keepalive_interval"`
	DaemonPort           int           `mapstructure:"daemon_port"`
	DBPath               string        `mapstructure:"db_path"`
	LockPath             string        `mapstructure:"lock_path"`
	IgnoreList           []string      `mapstructure:"ignore_list"`
}

var Default = Config{
	EndpointURL:          "http://localhost:8000/Pictures/",
	MaxConcurrentUploads: 4,
	QueueSize:            256,
	KeepAliveInterval:    5 * time.Second,
	DaemonPort:           9101,
	IgnoreList:           []string{".DS_Store", "*.tmp", "*.swp", ".pending-*", ".trashed-*"},
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	return LoadFrom(filepath.Join(home, ".picup"), filepath.Join(home, "Pictures"))
}

// LoadFrom reads config.yaml from configDir. Paths that are not configured
// are placed inside configDir, and defaultWatch is used when neither the
// config file nor the environment names a fallback watch directory.
func LoadFrom(configDir, defaultWatch string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetDefault("endpoint_url", Default.EndpointURL)
	v.SetDefault("watch_path", "")
	v.SetDefault("media_root", "")
	v.SetDefault("default_watch_path", defaultWatch)
	v.SetDefault("max_concurrent_uploads", Default.MaxConcurrentUploads)
	v.SetDefault("queue_size", Default.QueueSize)
	v.SetDefault("upload_timeout", Default.UploadTimeout)
	v.SetDefault("keepalive_interval", Default.KeepAliveInterval)
	v.SetDefault("daemon_port", Default.DaemonPort)
	v.SetDefault("db_path", filepath.Join(configDir, "picup.db"))
	v.SetDefault("lock_path", filepath.Join(configDir, "picup.lock"))
	v.SetDefault("ignore_list", Default.IgnoreList)

	v.SetEnvPrefix("PICUP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.EndpointURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid endpoint_url %q", c.EndpointURL)
	}

	if c.MaxConcurrentUploads < 1 {
		return fmt.Errorf("max_concurrent_uploads must be at least 1, got %d", c.MaxConcurrentUploads)
	}

	if c.QueueSize < 0 {
		return fmt.Errorf("queue_size must not be negative, got %d", c.QueueSize)
	}

	if c.KeepAliveInterval <= 0 {
		return fmt.Errorf("keepalive_interval must be positive, got %s", c.KeepAliveInterval)
	}

	if c.DefaultWatchPath == "" {
		return errors.New("default_watch_path is required")
	}

	return nil
}
