// Package config loads application settings from .env, an optional
// offerdesk.{toml,yaml} file and OFFERDESK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "OFFERDESK"

type Config struct {
	Currency  string        `mapstructure:"currency"`
	PageSize  int           `mapstructure:"page_size"`
	DraftTTL  time.Duration `mapstructure:"draft_ttl"`
	LogLevel  string        `mapstructure:"log_level"`
	Dev       bool          `mapstructure:"dev"`
	StaticDir string        `mapstructure:"static_dir"`
	Metrics   bool          `mapstructure:"metrics"`

	// ListCacheTTL bounds how long a cached list is reused; 0 disables it.
	ListCacheTTL time.Duration `mapstructure:"list_cache_ttl"`

	// Default durations for new groups, in months.
	EnvironmentMonths int `mapstructure:"environment_months"`
	ServiceMonths     int `mapstructure:"service_months"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("currency", "€")
	v.SetDefault("page_size", 25)
	v.SetDefault("draft_ttl", 2*time.Hour)
	v.SetDefault("log_level", "info")
	v.SetDefault("dev", false)
	v.SetDefault("static_dir", "./static")
	v.SetDefault("metrics", true)
	v.SetDefault("list_cache_ttl", 5*time.Minute)
	v.SetDefault("environment_months", 12)
	v.SetDefault("service_months", 1)
}

// Load reads the configuration. dirs are searched for offerdesk.toml or
// offerdesk.yaml; the working directory is used when none are given. A
// missing file is not an error.
func Load(dirs ...string) (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("offerdesk")
	if len(dirs) == 0 {
		dirs = []string{".", "config"}
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.DraftTTL < time.Minute {
		return fmt.Errorf("draft_ttl must be at least 1m, got %s", c.DraftTTL)
	}
	if c.ListCacheTTL < 0 {
		return fmt.Errorf("list_cache_ttl must not be negative, got %s", c.ListCacheTTL)
	}
	if c.EnvironmentMonths <= 0 || c.ServiceMonths <= 0 {
		return errors.New("default durations must be positive")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Logger builds the process logger: console output in dev mode, JSON
// otherwise.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if c.Dev {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	return zc.Build(zap.Fields(zap.Int("pid", os.Getpid())))
}
