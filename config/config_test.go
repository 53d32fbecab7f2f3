package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibegallery/vibegallery/manifest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ".", cfg.Scan.Root)
	assert.Contains(t, cfg.Scan.Subtrees, "apps")
	assert.Contains(t, cfg.Scan.ExcludeNames, "index.html")
	assert.Equal(t, "archive", cfg.Scan.ArchiveDir)
	assert.True(t, cfg.IncludeArchive())
	assert.Equal(t, int64(10*1024), cfg.PrefixBytes())
	assert.Equal(t, string(manifest.FallbackCategory), cfg.Classify.Fallback)
	assert.Equal(t, manifest.DefaultFilename, cfg.Manifest.Filename)
	assert.Equal(t, 2*time.Second, cfg.Watch.Interval)
	assert.True(t, cfg.NotifyEnabled())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty root", func(c *Config) { c.Scan.Root = "" }},
		{"zero prefix", func(c *Config) { c.Extract.PrefixKiB = 0 }},
		{"unknown fallback", func(c *Config) { c.Classify.Fallback = "bogus" }},
		{"empty manifest filename", func(c *Config) { c.Manifest.Filename = "" }},
		{"zero interval", func(c *Config) { c.Watch.Interval = 0 }},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMerge_OverlaysSetFieldsOnly(t *testing.T) {
	cfg := DefaultConfig()
	includeArchive := false

	cfg.Merge(&Config{
		Scan: ScanConfig{
			Root:           "/srv/gallery",
			Subtrees:       []string{"apps"},
			IncludeArchive: &includeArchive,
		},
		Watch: WatchConfig{Interval: 5 * time.Second},
	})

	assert.Equal(t, "/srv/gallery", cfg.Scan.Root)
	assert.Equal(t, []string{"apps"}, cfg.Scan.Subtrees)
	assert.False(t, cfg.IncludeArchive())
	assert.Equal(t, 5*time.Second, cfg.Watch.Interval)

	// Untouched fields keep their defaults.
	assert.Equal(t, "archive", cfg.Scan.ArchiveDir)
	assert.Equal(t, 10, cfg.Extract.PrefixKiB)
	assert.Equal(t, manifest.DefaultFilename, cfg.Manifest.Filename)
	assert.True(t, cfg.NotifyEnabled())
}

func TestMerge_Nil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(nil)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vibegallery.yaml")

	cfg := DefaultConfig()
	cfg.Scan.Root = "/srv/gallery"
	cfg.Watch.Interval = 7 * time.Second
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/gallery", loaded.Scan.Root)
	assert.Equal(t, 7*time.Second, loaded.Watch.Interval)
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: [not a map"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoaderLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  root: /srv/gallery\n"), 0644))

	cfg, err := NewLoader(nil).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/gallery", cfg.Scan.Root)
	// Defaults survive underneath the explicit file.
	assert.Equal(t, 10, cfg.Extract.PrefixKiB)
}

func TestLoaderLoadFile_Missing(t *testing.T) {
	_, err := NewLoader(nil).LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoaderLoadFile_InvalidAfterMerge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classify:\n  fallback: bogus\n"), 0644))

	_, err := NewLoader(nil).LoadFile(path)
	assert.Error(t, err)
}
