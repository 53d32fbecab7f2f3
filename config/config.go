// Package config provides configuration loading and management for the
// gallery manifest engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vibegallery/vibegallery/manifest"
)

// Config represents the complete engine configuration.
type Config struct {
	Scan     ScanConfig     `yaml:"scan"`
	Extract  ExtractConfig  `yaml:"extract"`
	Classify ClassifyConfig `yaml:"classify"`
	Manifest ManifestConfig `yaml:"manifest"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ScanConfig controls which files the walker considers.
type ScanConfig struct {
	// Root is the scan root (default: current directory).
	Root string `yaml:"root"`
	// Subtrees are scanned recursively; the root itself is not.
	Subtrees []string `yaml:"subtrees"`
	// ExcludeNames lists gallery index files skipped by basename.
	ExcludeNames []string `yaml:"exclude_names"`
	// ExcludePatterns are doublestar globs removed from the walk.
	ExcludePatterns []string `yaml:"exclude_patterns"`
	// ArchiveDir is the subtree of deprecated apps.
	ArchiveDir string `yaml:"archive_dir"`
	// IncludeArchive surfaces the archive subtree as its own category.
	IncludeArchive *bool `yaml:"include_archive"`
}

// ExtractConfig controls metadata extraction.
type ExtractConfig struct {
	// PrefixKiB bounds how much of each file is read (default: 10).
	PrefixKiB int `yaml:"prefix_kib"`
}

// ClassifyConfig controls classification.
type ClassifyConfig struct {
	// Fallback receives files with no classification signal.
	Fallback string `yaml:"fallback"`
}

// ManifestConfig controls manifest output.
type ManifestConfig struct {
	// Filename of the manifest, relative to the scan root.
	Filename string `yaml:"filename"`
	// OverridesFile is the editorial overrides document, relative to the root.
	OverridesFile string `yaml:"overrides_file"`
	// RegistryFile is the first-seen date registry, relative to the root.
	RegistryFile string `yaml:"registry_file"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// Interval is the polling cadence between scans.
	Interval time.Duration `yaml:"interval"`
	// Notify enables fsnotify wake-ups between polls.
	Notify *bool `yaml:"notify"`
	// Debounce is how long to wait after a filesystem event before rescanning.
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	includeArchive := true
	notify := true
	return &Config{
		Scan: ScanConfig{
			Root:            ".",
			Subtrees:        []string{"apps", "artifacts", "notes", "edgeAddons"},
			ExcludeNames:    []string{"index.html", "gallery.html", "template.html", "index_old.html"},
			ExcludePatterns: []string{"**/node_modules/**"},
			ArchiveDir:      "archive",
			IncludeArchive:  &includeArchive,
		},
		Extract: ExtractConfig{
			PrefixKiB: 10,
		},
		Classify: ClassifyConfig{
			Fallback: string(manifest.FallbackCategory),
		},
		Manifest: ManifestConfig{
			Filename:      manifest.DefaultFilename,
			OverridesFile: "gallery_overrides.json",
			RegistryFile:  "app_dates_registry.json",
		},
		Watch: WatchConfig{
			Interval: 2 * time.Second,
			Notify:   &notify,
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Scan.Root == "" {
		return fmt.Errorf("scan.root is required")
	}
	if c.Extract.PrefixKiB <= 0 {
		return fmt.Errorf("extract.prefix_kib must be positive")
	}
	if !manifest.Category(c.Classify.Fallback).Valid() {
		return fmt.Errorf("classify.fallback %q is not a known category", c.Classify.Fallback)
	}
	if c.Manifest.Filename == "" {
		return fmt.Errorf("manifest.filename is required")
	}
	if c.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	return nil
}

// Merge overlays other's set fields onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Scan
	if other.Scan.Root != "" {
		c.Scan.Root = other.Scan.Root
	}
	if other.Scan.Subtrees != nil {
		c.Scan.Subtrees = other.Scan.Subtrees
	}
	if other.Scan.ExcludeNames != nil {
		c.Scan.ExcludeNames = other.Scan.ExcludeNames
	}
	if other.Scan.ExcludePatterns != nil {
		c.Scan.ExcludePatterns = other.Scan.ExcludePatterns
	}
	if other.Scan.ArchiveDir != "" {
		c.Scan.ArchiveDir = other.Scan.ArchiveDir
	}
	if other.Scan.IncludeArchive != nil {
		c.Scan.IncludeArchive = other.Scan.IncludeArchive
	}

	// Extract
	if other.Extract.PrefixKiB != 0 {
		c.Extract.PrefixKiB = other.Extract.PrefixKiB
	}

	// Classify
	if other.Classify.Fallback != "" {
		c.Classify.Fallback = other.Classify.Fallback
	}

	// Manifest
	if other.Manifest.Filename != "" {
		c.Manifest.Filename = other.Manifest.Filename
	}
	if other.Manifest.OverridesFile != "" {
		c.Manifest.OverridesFile = other.Manifest.OverridesFile
	}
	if other.Manifest.RegistryFile != "" {
		c.Manifest.RegistryFile = other.Manifest.RegistryFile
	}

	// Watch
	if other.Watch.Interval != 0 {
		c.Watch.Interval = other.Watch.Interval
	}
	if other.Watch.Notify != nil {
		c.Watch.Notify = other.Watch.Notify
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}

// IncludeArchive resolves the archive policy (default: include).
func (c *Config) IncludeArchive() bool {
	return c.Scan.IncludeArchive == nil || *c.Scan.IncludeArchive
}

// NotifyEnabled resolves whether fsnotify wake-ups are active (default: on).
func (c *Config) NotifyEnabled() bool {
	return c.Watch.Notify == nil || *c.Watch.Notify
}

// PrefixBytes returns the extraction read bound in bytes.
func (c *Config) PrefixBytes() int64 {
	return int64(c.Extract.PrefixKiB) * 1024
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
