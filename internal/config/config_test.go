package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFrom(dir, "/photos")
	require.NoError(t, err)

	assert.Equal(t, Default.EndpointURL, cfg.EndpointURL)
	assert.Equal(t, "/photos", cfg.DefaultWatchPath)
	assert.Empty(t, cfg.WatchPath)
	assert.Equal(t, 4, cfg.MaxConcurrentUploads)
	assert.Equal(t, 256, cfg.QueueSize)
	assert.Equal(t, 5*time.Second, cfg.KeepAliveInterval)
	assert.Zero(t, cfg.UploadTimeout)
	assert.Equal(t, filepath.Join(dir, "picup.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "picup.lock"), cfg.LockPath)
	assert.Contains(t, cfg.IgnoreList, "*.tmp")
}

func TestLoadFrom_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `endpoint_url: https://photos.example.com/Pictures/
watch_path: /sdcard/DCIM/Camera
max_concurrent_uploads: 2
keepalive_interval: 30s
upload_timeout: 1m
ignore_list: ["*.part"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadFrom(dir, "/photos")
	require.NoError(t, err)

	assert.Equal(t, "https://photos.example.com/Pictures/", cfg.EndpointURL)
	assert.Equal(t, "/sdcard/DCIM/Camera", cfg.WatchPath)
	assert.Equal(t, 2, cfg.MaxConcurrentUploads)
	assert.Equal(t, 30*time.Second, cfg.KeepAliveInterval)
	assert.Equal(t, time.Minute, cfg.UploadTimeout)
	assert.Equal(t, []string{"*.part"}, cfg.IgnoreList)
}

func TestLoadFrom_Env(t *testing.T) {
	t.Setenv("PICUP_ENDPOINT_URL", "http://10.0.0.2:8000/Pictures/")
	t.Setenv("PICUP_MAX_CONCURRENT_UPLOADS", "8")

	cfg, err := LoadFrom(t.TempDir(), "/photos")
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.2:8000/Pictures/", cfg.EndpointURL)
	assert.Equal(t, 8, cfg.MaxConcurrentUploads)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Default
		c.DefaultWatchPath = "/photos"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad scheme", func(c *Config) { c.EndpointURL = "ftp://host/Pictures/" }, false},
		{"no host", func(c *Config) { c.EndpointURL = "http:///Pictures/" }, false},
		{"zero workers", func(c *Config) { c.MaxConcurrentUploads = 0 }, false},
		{"negative queue", func(c *Config) { c.QueueSize = -1 }, false},
		{"unbuffered queue", func(c *Config) { c.QueueSize = 0 }, true},
		{"zero keepalive", func(c *Config) { c.KeepAliveInterval = 0 }, false},
		{"no default watch path", func(c *Config) { c.DefaultWatchPath = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
