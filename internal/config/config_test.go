package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simple-dl/internal/downloader"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Downloads", cfg.Download.Dir)
	assert.Equal(t, 8192, cfg.Download.ChunkSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Download.GetSampleInterval())
	assert.Equal(t, 100*time.Millisecond, cfg.Download.GetPollInterval())
	assert.Zero(t, cfg.Download.RateLimit)
	assert.False(t, cfg.Network.UseDoH)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)

	assert.Equal(t, downloader.DefaultConfig(), cfg.DownloaderConfig())
}

func TestLoad_File(t *testing.T) {
	p := writeConfig(t, `
download:
  dir: /tmp/dl
  chunk_size: 65536
  sample_interval: 1s
  poll_interval: 50ms
  rate_limit: 1048576
network:
  use_doh: true
  insecure_skip_verify: true
logging:
  level: debug
  format: json
`)

	cfg, err := Load(p)
	require.NoError(t, err)

	dc := cfg.DownloaderConfig()
	assert.Equal(t, "/tmp/dl", dc.Dir)
	assert.Equal(t, 65536, dc.ChunkSize)
	assert.Equal(t, time.Second, dc.SampleInterval)
	assert.Equal(t, 50*time.Millisecond, dc.PollInterval)
	assert.Equal(t, int64(1048576), dc.RateLimit)
	assert.True(t, dc.UseDoH)
	assert.True(t, dc.InsecureSkipVerify)
	assert.Equal(t, "https://cloudflare-dns.com/dns-query", dc.DoHEndpoint)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SIMPLEDL_DOWNLOAD_DIR", "/srv/incoming")
	t.Setenv("SIMPLEDL_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/incoming", cfg.Download.Dir)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Download: DownloadConfig{ChunkSize: 8192, SampleInterval: "500ms", PollInterval: "100ms"},
			Logging:  LoggingConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "zero chunk size", mutate: func(c *Config) { c.Download.ChunkSize = 0 }, wantErr: "chunk_size"},
		{name: "negative rate limit", mutate: func(c *Config) { c.Download.RateLimit = -1 }, wantErr: "rate_limit"},
		{name: "bad sample interval", mutate: func(c *Config) { c.Download.SampleInterval = "soon" }, wantErr: "sample_interval"},
		{name: "zero poll interval", mutate: func(c *Config) { c.Download.PollInterval = "0s" }, wantErr: "poll_interval"},
		{name: "doh without endpoint", mutate: func(c *Config) { c.Network.UseDoH = true }, wantErr: "doh_endpoint"},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: "logging.level"},
		{name: "bad format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
