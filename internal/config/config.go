package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vjranagit/touchdown/pkg/landing"
	"github.com/vjranagit/touchdown/pkg/render"
	"github.com/vjranagit/touchdown/pkg/storage"
	"github.com/vjranagit/touchdown/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Storage  StorageConfig  `yaml:"storage"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Render   RenderConfig   `yaml:"render"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"log_level"`
}

// SourceConfig selects what is read from the export
type SourceConfig struct {
	Signals []string `yaml:"signals"`
}

// StorageConfig holds snapshot and load-cache settings
type StorageConfig struct {
	// SnapshotPath is where `snapshot save` writes and `--snapshot` reads.
	SnapshotPath string `yaml:"snapshot_path"`

	// CacheDir enables the parsed-table cache when set.
	CacheDir         string `yaml:"cache_dir"`
	RetentionDays    int    `yaml:"retention_days"`
	CompressionLevel int    `yaml:"compression_level"`
}

// AnalysisConfig tunes metric extraction
type AnalysisConfig struct {
	StopThreshold float64 `yaml:"stop_threshold"`
	// JoinTolerance is in seconds; 0 requires exactly equal timestamps.
	JoinTolerance float64 `yaml:"join_tolerance"`
}

// RenderConfig holds plot and table layout
type RenderConfig struct {
	Columns     int    `yaml:"columns"`
	XTicks      int    `yaml:"x_ticks"`
	PanelWidth  int    `yaml:"panel_width"`
	PanelHeight int    `yaml:"panel_height"`
	TableStyle  string `yaml:"table_style"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr string        `yaml:"listen_addr"`
	Timeout    time.Duration `yaml:"timeout"`
	Watch      bool          `yaml:"watch"`
}

// DefaultConfig returns default configuration, with environment overrides applied
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Signals: getEnvList("TOUCHDOWN_SIGNALS", types.DefaultSignals()),
		},
		Storage: StorageConfig{
			SnapshotPath:     getEnv("TOUCHDOWN_SNAPSHOT", "touchdown.snapshot"),
			CacheDir:         getEnv("TOUCHDOWN_CACHE_DIR", ""),
			RetentionDays:    getEnvInt("TOUCHDOWN_RETENTION_DAYS", 30),
			CompressionLevel: getEnvInt("TOUCHDOWN_COMPRESSION_LEVEL", storage.DefaultCompressionLevel),
		},
		Analysis: AnalysisConfig{
			StopThreshold: getEnvFloat("TOUCHDOWN_STOP_THRESHOLD", landing.DefaultStopThreshold),
			JoinTolerance: getEnvFloat("TOUCHDOWN_JOIN_TOLERANCE", landing.DefaultJoinTolerance),
		},
		Render: RenderConfig{
			Columns:     getEnvInt("TOUCHDOWN_COLUMNS", render.DefaultColumns),
			XTicks:      render.DefaultXTicks,
			PanelWidth:  render.DefaultPanelWidth,
			PanelHeight: render.DefaultPanelHeight,
			TableStyle:  getEnv("TOUCHDOWN_TABLE_STYLE", "light"),
		},
		Server: ServerConfig{
			ListenAddr: getEnv("TOUCHDOWN_LISTEN_ADDR", ":9090"),
			Timeout:    30 * time.Second,
			Watch:      getEnvBool("TOUCHDOWN_WATCH", false),
		},
		LogLevel: getEnv("TOUCHDOWN_LOG_LEVEL", "info"),
	}
}

// Load reads a YAML file over the defaults. Fields absent from the file keep
// their default (or environment) value.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if len(c.Source.Signals) == 0 {
		errs = append(errs, errors.New("at least one signal is required"))
	}
	if c.Storage.CompressionLevel < 1 || c.Storage.CompressionLevel > 4 {
		errs = append(errs, errors.New("compression level must be between 1 and 4"))
	}
	if c.Storage.CacheDir != "" && c.Storage.RetentionDays < 1 {
		errs = append(errs, errors.New("retention days must be at least 1"))
	}
	if c.Analysis.JoinTolerance < 0 {
		errs = append(errs, errors.New("join tolerance must not be negative"))
	}
	if c.Render.Columns < 1 {
		errs = append(errs, errors.New("render columns must be at least 1"))
	}
	if c.Render.PanelWidth < 1 || c.Render.PanelHeight < 1 {
		errs = append(errs, errors.New("panel size must be positive"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ToArchiveConfig converts to storage.ArchiveConfig; nil when caching is off
func (c *Config) ToArchiveConfig() *storage.ArchiveConfig {
	if c.Storage.CacheDir == "" {
		return nil
	}
	return &storage.ArchiveConfig{
		Path:             c.Storage.CacheDir,
		Retention:        time.Duration(c.Storage.RetentionDays) * 24 * time.Hour,
		CompressionLevel: c.Storage.CompressionLevel,
	}
}

// ExtractorOptions converts the analysis settings
func (c *Config) ExtractorOptions() []landing.Option {
	return []landing.Option{
		landing.WithStopThreshold(c.Analysis.StopThreshold),
		landing.WithJoinTolerance(c.Analysis.JoinTolerance),
	}
}

// Layout converts the render settings
func (c *Config) Layout(title string) render.Layout {
	return render.Layout{
		Title:   title,
		Columns: c.Render.Columns,
		XTicks:  c.Render.XTicks,
	}
}

// Level returns the configured log level
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%g", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
