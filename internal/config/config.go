package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"simple-dl/internal/downloader"
)

// EnvPrefix is prepended to every environment override, e.g. SIMPLEDL_DOWNLOAD_DIR.
const EnvPrefix = "SIMPLEDL"

// Config represents the entire application configuration
type Config struct {
	Download DownloadConfig `mapstructure:"download"`
	Network  NetworkConfig  `mapstructure:"network"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DownloadConfig contains transfer settings
type DownloadConfig struct {
	Dir            string `mapstructure:"dir"`
	ChunkSize      int    `mapstructure:"chunk_size"`
	SampleInterval string `mapstructure:"sample_interval"`
	PollInterval   string `mapstructure:"poll_interval"`
	RateLimit      int64  `mapstructure:"rate_limit"`
}

// NetworkConfig contains HTTP transport settings
type NetworkConfig struct {
	UseDoH             bool   `mapstructure:"use_doh"`
	DoHEndpoint        string `mapstructure:"doh_endpoint"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// New returns a viper instance with defaults and environment overrides set.
func New() *viper.Viper {
	v := viper.New()

	defaults := downloader.DefaultConfig()
	v.SetDefault("download.dir", defaults.Dir)
	v.SetDefault("download.chunk_size", defaults.ChunkSize)
	v.SetDefault("download.sample_interval", defaults.SampleInterval.String())
	v.SetDefault("download.poll_interval", defaults.PollInterval.String())
	v.SetDefault("download.rate_limit", 0)
	v.SetDefault("network.use_doh", false)
	v.SetDefault("network.doh_endpoint", defaults.DoHEndpoint)
	v.SetDefault("network.insecure_skip_verify", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load loads configuration from configPath. An empty path uses defaults and
// environment variables only.
func Load(configPath string) (*Config, error) {
	v := New()
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Download.ChunkSize <= 0 {
		return fmt.Errorf("download.chunk_size must be positive")
	}
	if c.Download.RateLimit < 0 {
		return fmt.Errorf("download.rate_limit must not be negative")
	}
	if d, err := time.ParseDuration(c.Download.SampleInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid download.sample_interval: %q", c.Download.SampleInterval)
	}
	if d, err := time.ParseDuration(c.Download.PollInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid download.poll_interval: %q", c.Download.PollInterval)
	}
	if c.Network.UseDoH && c.Network.DoHEndpoint == "" {
		return fmt.Errorf("network.doh_endpoint is required when network.use_doh is set")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetSampleInterval returns the speed sampling window as time.Duration
func (c *DownloadConfig) GetSampleInterval() time.Duration {
	d, _ := time.ParseDuration(c.SampleInterval)
	if d == 0 {
		return 500 * time.Millisecond
	}
	return d
}

// GetPollInterval returns the pause poll interval as time.Duration
func (c *DownloadConfig) GetPollInterval() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	if d == 0 {
		return 100 * time.Millisecond
	}
	return d
}

// DownloaderConfig maps the file configuration onto the engine settings
func (c *Config) DownloaderConfig() downloader.Config {
	return downloader.Config{
		Dir:                c.Download.Dir,
		ChunkSize:          c.Download.ChunkSize,
		SampleInterval:     c.Download.GetSampleInterval(),
		PollInterval:       c.Download.GetPollInterval(),
		RateLimit:          c.Download.RateLimit,
		UseDoH:             c.Network.UseDoH,
		DoHEndpoint:        c.Network.DoHEndpoint,
		InsecureSkipVerify: c.Network.InsecureSkipVerify,
	}
}
