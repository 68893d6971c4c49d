// Package config loads the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCacheCapacity     = 500
	DefaultReservedCores     = 2
	DefaultThumbnailWindow   = 10
	DefaultSyntaxMaxBytes    = 1 << 20
	DefaultTextMaxBytes      = 256 << 10
	DefaultTreeDepth         = 3
	DefaultTreeMaxLines      = 2000
	DefaultHelperTimeout     = 5 * time.Second
	DefaultVideoThumbnailTTL = 7 * 24 * time.Hour
	DefaultSyntaxStyle       = "monokai"
	DefaultRenderTick        = 33 * time.Millisecond
)

// Config is the persistent application configuration.
type Config struct {
	Preview  PreviewConfig `yaml:"preview"`
	Render   RenderConfig  `yaml:"render"`
	Plugins  []PluginSpec  `yaml:"plugins"`
	Commands []CommandSpec `yaml:"commands"`
	Log      LogConfig     `yaml:"log"`
}

// PreviewConfig tunes the preview cache, the worker pool and the strategies.
type PreviewConfig struct {
	CacheCapacity     int           `yaml:"cache_capacity"`
	Workers           int           `yaml:"workers"` // 0 = NumCPU - ReservedCores
	ReservedCores     int           `yaml:"reserved_cores"`
	ThumbnailWindow   int           `yaml:"thumbnail_window"`
	SyntaxMaxBytes    int64         `yaml:"syntax_max_bytes"`
	TextMaxBytes      int64         `yaml:"text_max_bytes"`
	TreeDepth         int           `yaml:"tree_depth"`
	TreeMaxLines      int           `yaml:"tree_max_lines"`
	HelperTimeout     time.Duration `yaml:"helper_timeout"`
	VideoThumbnailTTL time.Duration `yaml:"video_thumbnail_ttl"`
	TempDir           string        `yaml:"temp_dir"`
	SyntaxStyle       string        `yaml:"syntax_style"`
	HideHidden        bool          `yaml:"hide_hidden"`
}

// RenderConfig controls the redraw loop.
type RenderConfig struct {
	Tick time.Duration `yaml:"tick"`
}

// PluginSpec names a native preview plugin to load at startup.
type PluginSpec struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// CommandSpec binds a key to a shell command whose output is previewed.
type CommandSpec struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
	Run  string `yaml:"run"`
}

// LogConfig selects the log file and verbosity.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Preview: PreviewConfig{
			CacheCapacity:     DefaultCacheCapacity,
			ReservedCores:     DefaultReservedCores,
			ThumbnailWindow:   DefaultThumbnailWindow,
			SyntaxMaxBytes:    DefaultSyntaxMaxBytes,
			TextMaxBytes:      DefaultTextMaxBytes,
			TreeDepth:         DefaultTreeDepth,
			TreeMaxLines:      DefaultTreeMaxLines,
			HelperTimeout:     DefaultHelperTimeout,
			VideoThumbnailTTL: DefaultVideoThumbnailTTL,
			TempDir:           os.TempDir(),
			SyntaxStyle:       DefaultSyntaxStyle,
			HideHidden:        true,
		},
		Render: RenderConfig{Tick: DefaultRenderTick},
		Log:    LogConfig{Level: "info"},
	}
}

// Path returns the default config file location.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "peek", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Normalize replaces out-of-range values with defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	p := &c.Preview
	if p.CacheCapacity <= 0 {
		p.CacheCapacity = d.Preview.CacheCapacity
	}
	if p.Workers < 0 {
		p.Workers = 0
	}
	if p.ReservedCores < 0 {
		p.ReservedCores = d.Preview.ReservedCores
	}
	if p.ThumbnailWindow < 0 {
		p.ThumbnailWindow = d.Preview.ThumbnailWindow
	}
	if p.SyntaxMaxBytes <= 0 {
		p.SyntaxMaxBytes = d.Preview.SyntaxMaxBytes
	}
	if p.TextMaxBytes <= 0 {
		p.TextMaxBytes = d.Preview.TextMaxBytes
	}
	if p.TreeDepth <= 0 {
		p.TreeDepth = d.Preview.TreeDepth
	}
	if p.TreeMaxLines <= 0 {
		p.TreeMaxLines = d.Preview.TreeMaxLines
	}
	if p.HelperTimeout <= 0 {
		p.HelperTimeout = d.Preview.HelperTimeout
	}
	if p.VideoThumbnailTTL <= 0 {
		p.VideoThumbnailTTL = d.Preview.VideoThumbnailTTL
	}
	if p.TempDir == "" {
		p.TempDir = d.Preview.TempDir
	}
	if p.SyntaxStyle == "" {
		p.SyntaxStyle = d.Preview.SyntaxStyle
	}
	if c.Render.Tick <= 0 {
		c.Render.Tick = d.Render.Tick
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// WorkerCount resolves the preview pool size: the configured value, or the
// available parallelism minus the reserved cores, never below one.
func (c *Config) WorkerCount() int {
	return workerCount(c.Preview.Workers, c.Preview.ReservedCores, runtime.NumCPU())
}

func workerCount(configured, reserved, cpus int) int {
	if configured > 0 {
		return configured
	}
	n := cpus - reserved
	if n < 1 {
		n = 1
	}
	return n
}
