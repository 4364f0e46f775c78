package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Provider ProviderConfig `mapstructure:"provider"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type PlannerConfig struct {
	PrefetchWorkers   int           `mapstructure:"prefetch_workers"`
	PrefetchTimeout   time.Duration `mapstructure:"prefetch_timeout"`
	SpecializeTimeout time.Duration `mapstructure:"specialize_timeout"`
	SelectionRetries  int           `mapstructure:"selection_retries"`
	MemoCacheSize     int           `mapstructure:"memo_cache_size"`
}

type FetchConfig struct {
	TicketmasterKey string  `mapstructure:"ticketmaster_key"`
	CacheSize       int     `mapstructure:"cache_size"`
	DefaultLat      float64 `mapstructure:"default_lat"`
	DefaultLon      float64 `mapstructure:"default_lon"`
}

type JournalConfig struct {
	Path string `mapstructure:"path"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from the given YAML file, overlaid with
// WAYFARER_* environment variables (WAYFARER_PROVIDER_API_KEY and so on).
// A missing file is not an error; env vars and defaults still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WAYFARER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key gets a default so AutomaticEnv can surface it during
	// Unmarshal even when no config file mentions it.
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "gpt-4o-mini")
	v.SetDefault("provider.base_url", "")
	v.SetDefault("planner.prefetch_workers", 8)
	v.SetDefault("planner.prefetch_timeout", 12*time.Second)
	v.SetDefault("planner.specialize_timeout", 180*time.Second)
	v.SetDefault("planner.selection_retries", 2)
	v.SetDefault("planner.memo_cache_size", 128)
	v.SetDefault("fetch.ticketmaster_key", "")
	v.SetDefault("fetch.cache_size", 64)
	v.SetDefault("fetch.default_lat", 40.7128)
	v.SetDefault("fetch.default_lon", -74.0060)
	v.SetDefault("journal.path", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("logging.level", "info")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
