// Package config handles configuration loading, validation, and management for keying.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"keying/internal/ime"
	"keying/internal/logging"
	"keying/internal/press"
	"keying/internal/remap"
	"keying/internal/shift"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete keyboard configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Keyboard configures the input engine.
	Keyboard KeyboardConfig `toml:"keyboard" json:"keyboard" yaml:"keyboard"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// IBus configures the Linux frontend.
	IBus IBusConfig `toml:"ibus" json:"ibus" yaml:"ibus"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `toml:"metrics" json:"metrics" yaml:"metrics"`
}

// KeyboardConfig holds input engine settings.
type KeyboardConfig struct {
	// LongPressThresholdMs separates short from long presses. A press held
	// strictly longer than this is long.
	LongPressThresholdMs int `toml:"long_press_threshold_ms" json:"long_press_threshold_ms" yaml:"long_press_threshold_ms"`

	// WordSeparators lists the characters that end a word.
	WordSeparators string `toml:"word_separators" json:"word_separators" yaml:"word_separators"`

	// PredictionEnabled lets letters collect as composing text.
	PredictionEnabled bool `toml:"prediction_enabled" json:"prediction_enabled" yaml:"prediction_enabled"`

	// LongPressMappings is a pair string: each primary followed by its sibling.
	LongPressMappings string `toml:"long_press_mappings" json:"long_press_mappings" yaml:"long_press_mappings"`

	// StartMode is "alphabetic" or "symbolic".
	StartMode string `toml:"start_mode" json:"start_mode" yaml:"start_mode"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", "file" or "both".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file when Output includes a file.
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`

	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept.
	MaxBackups int `toml:"max_backups" json:"max_backups" yaml:"max_backups"`

	// LogText writes typed characters to the log. Off by default.
	LogText bool `toml:"log_text" json:"log_text" yaml:"log_text"`
}

// IBusConfig holds IBus frontend settings.
type IBusConfig struct {
	// BusName is the well-known D-Bus name the engine process requests.
	BusName string `toml:"bus_name" json:"bus_name" yaml:"bus_name"`

	// EngineName is the engine name shown in IBus preferences.
	EngineName string `toml:"engine_name" json:"engine_name" yaml:"engine_name"`

	// ComponentDir is where -install writes the component XML.
	ComponentDir string `toml:"component_dir" json:"component_dir" yaml:"component_dir"`
}

// MetricsConfig holds Prometheus endpoint settings.
type MetricsConfig struct {
	// Enabled serves /metrics on Address.
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	// Address is the listen address, e.g. "127.0.0.1:9464".
	Address string `toml:"address" json:"address" yaml:"address"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Keyboard: KeyboardConfig{
			LongPressThresholdMs: int(press.DefaultThreshold / time.Millisecond),
			WordSeparators:       ime.DefaultWordSeparators,
			PredictionEnabled:    true,
			LongPressMappings:    remap.DefaultMappings,
			StartMode:            shift.Alphabetic.String(),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformLogDir(), "keying.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		IBus: IBusConfig{
			BusName:      "org.freedesktop.IBus.Keying",
			EngineName:   "keying",
			ComponentDir: IBusComponentDir(),
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "127.0.0.1:9464",
		},
	}
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(PlatformConfigDir(), "keying.toml")
}

// Load reads configuration from the specified path.
// If the file doesn't exist, returns default configuration.
// Supports TOML, JSON, and YAML formats based on file extension.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	cfg.ApplyEnvOverrides()

	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables are prefixed with KEYING_. Unparseable values are ignored.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KEYING_LONG_PRESS_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Keyboard.LongPressThresholdMs = ms
		}
	}
	if v := os.Getenv("KEYING_PREDICTION"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Keyboard.PredictionEnabled = on
		}
	}

	// Logging overrides
	if v := os.Getenv("KEYING_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("KEYING_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// EngineOptions converts the keyboard section to engine options.
// The configuration must have passed Validate.
func (c *Config) EngineOptions() (ime.Options, error) {
	table, err := remap.Parse(c.Keyboard.LongPressMappings)
	if err != nil {
		return ime.Options{}, fmt.Errorf("keyboard.long_press_mappings: %w", err)
	}
	mode, ok := shift.ParseMode(c.Keyboard.StartMode)
	if !ok {
		return ime.Options{}, fmt.Errorf("keyboard.start_mode: unknown mode %q", c.Keyboard.StartMode)
	}
	return ime.Options{
		LongPressThreshold: time.Duration(c.Keyboard.LongPressThresholdMs) * time.Millisecond,
		WordSeparators:     c.Keyboard.WordSeparators,
		PredictionEnabled:  c.Keyboard.PredictionEnabled,
		Remap:              table,
		StartMode:          mode,
	}, nil
}

// LoggerConfig converts the logging section for logging.New.
func (c *Config) LoggerConfig(component string) (*logging.Config, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}
	return &logging.Config{
		Level:      level,
		Format:     format,
		Output:     c.Logging.Output,
		FilePath:   c.Logging.FilePath,
		MaxSize:    int64(c.Logging.MaxSizeMB),
		MaxBackups: c.Logging.MaxBackups,
		LogText:    c.Logging.LogText,
		Component:  component,
	}, nil
}

// Format names a configuration file syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from the file extension. Unknown
// extensions are read as TOML.
func FormatFromPath(path string) Format {
	switch filepath.Ext(path) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Decode parses data over cfg.
func Decode(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("decode TOML: %w", err)
		}
	}
	return nil
}

// Encode writes cfg in the given format.
func Encode(w io.Writer, cfg *Config, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return toml.NewEncoder(w).Encode(cfg)
	}
}

// SaveConfig writes the configuration to path in the format implied by
// its extension.
func SaveConfig(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, cfg, FormatFromPath(path)); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
