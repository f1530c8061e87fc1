package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultBaseURL      = "https://api.kennedn.com/v2"
	defaultTimeout      = 30 * time.Second
	defaultRetryMax     = 2
	defaultCacheBackend = "file"
	defaultCacheKey     = "stateful_api_cache_v1"
	defaultLogLevel     = "info"
)

type CacheConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=file badger"`
	Path    string `mapstructure:"path"`
	Key     string `mapstructure:"key" validate:"required"`
}

type AuthConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file"`
}

type Config struct {
	BaseURL  string        `mapstructure:"base_url" validate:"required,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RetryMax int           `mapstructure:"retry_max" validate:"gte=0,lte=10"`
	Cache    CacheConfig   `mapstructure:"cache"`
	Auth     AuthConfig    `mapstructure:"auth"`
	Log      LogConfig     `mapstructure:"log"`
}

func defaultConfig() *Config {
	return &Config{
		BaseURL:  defaultBaseURL,
		Timeout:  defaultTimeout,
		RetryMax: defaultRetryMax,
		Cache: CacheConfig{
			Backend: defaultCacheBackend,
			Key:     defaultCacheKey,
		},
		Log: LogConfig{Level: defaultLogLevel},
	}
}

// Dir is the directory config.yaml is read from first.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "apinav")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "apinav")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "apinav"))
	}
	v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "apinav"))

	v.SetEnvPrefix("APINAV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", defaultBaseURL)
	v.SetDefault("timeout", defaultTimeout)
	v.SetDefault("retry_max", defaultRetryMax)
	v.SetDefault("cache.backend", defaultCacheBackend)
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.key", defaultCacheKey)
	v.SetDefault("auth.path", "")
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.file", "")
	return v
}

// Load reads config.yaml (or config.toml) and APINAV_* environment
// overrides, then validates the result. A missing file is not an error.
func Load() (*Config, error) {
	cfg := defaultConfig()

	v := newViper()
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		// fallback to TOML if yaml missing
		v.SetConfigType("toml")
		_ = v.ReadInConfig()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
