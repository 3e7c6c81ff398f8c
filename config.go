package deltav

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "yaml"
	envPrefix  = "DELTAV"
	dbFile     = "deltav.db"
)

// Config is the persisted configuration found in <config dir>/config.yaml.
// Every key can be overridden by an environment variable prefixed with DELTAV_.
type Config struct {
	viper           *viper.Viper
	ConfigDir       string        `mapstructure:"config_dir"`       // Directory holding config.yaml
	DBPath          string        `mapstructure:"db_path"`          // SQLite cache file
	APIBaseURL      string        `mapstructure:"api_base_url"`     // Launch Library 2 root
	PageLimit       int           `mapstructure:"page_limit"`       // Launches requested per refresh
	RefreshInterval time.Duration `mapstructure:"refresh_interval"` // Period of the background refresh
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`     // Timeout of a single request to the API
	RetryAttempts   uint64        `mapstructure:"retry_attempts"`   // Total attempts per fetch
	ListenAddress   string        `mapstructure:"listen_address"`   // Address of the HTTP API
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	KafkaBrokers    []string      `mapstructure:"kafka_brokers"` // Empty disables change events
	KafkaTopic      string        `mapstructure:"kafka_topic"`
}

// LoadConfig reads config.yaml from dir, creating the directory and a file holding the
// defaults when they do not exist yet.
func LoadConfig(dir string) (*Config, error) {
	_, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking if directory exists %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating config dir %s: %w", dir, err)
		}
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("config_dir", dir)
	v.SetDefault("db_path", filepath.Join(dir, dbFile))
	v.SetDefault("api_base_url", "https://ll.thespacedevs.com/2.2.0")
	v.SetDefault("page_limit", 50)
	v.SetDefault("refresh_interval", "30m")
	v.SetDefault("http_timeout", "15s")
	v.SetDefault("retry_attempts", 3)
	v.SetDefault("listen_address", "127.0.0.1:8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("kafka_brokers", []string{})
	v.SetDefault("kafka_topic", "deltav.launches")

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file : %w", err)
		}
		if err := v.SafeWriteConfig(); err != nil {
			return nil, fmt.Errorf("writing config file : %w", err)
		}
	}

	cfg := &Config{viper: v}
	if err := cfg.load(); err != nil {
		return nil, err
	}
	// config_dir always reflects where the file was found
	cfg.ConfigDir = dir
	return cfg, nil
}

// Set updates a single key and writes the configuration back to disk.
func (cfg *Config) Set(key string, value any) error {
	if cfg.viper == nil {
		return errors.New("config was not loaded from a directory")
	}
	cfg.viper.Set(key, value)
	if err := cfg.viper.WriteConfig(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	return cfg.load()
}

func (cfg *Config) load() error {
	if err := cfg.viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshalling config to struct : %w", err)
	}
	if cfg.PageLimit <= 0 {
		return fmt.Errorf("page_limit must be positive, got %d", cfg.PageLimit)
	}
	if cfg.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", cfg.RefreshInterval)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", cfg.HTTPTimeout)
	}
	if cfg.RetryAttempts == 0 {
		return errors.New("retry_attempts must be at least 1")
	}
	return nil
}
