package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keying/internal/ime"
	"keying/internal/logging"
	"keying/internal/shift"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, Version, cfg.Version)
	assert.Equal(t, 150, cfg.Keyboard.LongPressThresholdMs)
	assert.True(t, cfg.Keyboard.PredictionEnabled)
	assert.Equal(t, "alphabetic", cfg.Keyboard.StartMode)
	assert.False(t, cfg.Logging.LogText)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestDefaultEngineOptionsMatchEngineDefaults(t *testing.T) {
	opts, err := DefaultConfig().EngineOptions()
	require.NoError(t, err)

	def := ime.DefaultOptions()
	assert.Equal(t, def.LongPressThreshold, opts.LongPressThreshold)
	assert.Equal(t, def.WordSeparators, opts.WordSeparators)
	assert.Equal(t, def.PredictionEnabled, opts.PredictionEnabled)
	assert.Equal(t, def.StartMode, opts.StartMode)
	assert.Equal(t, def.Remap.Pairs(), opts.Remap.Pairs())
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	assert.True(t, strings.HasSuffix(path, "keying.toml"), path)
	assert.Contains(t, path, "keying")
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Keyboard, cfg.Keyboard)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "keying.toml", `
version = 1

[keyboard]
long_press_threshold_ms = 300
prediction_enabled = false
long_press_mappings = "q'"
start_mode = "symbolic"

[logging]
level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Keyboard.LongPressThresholdMs)
	assert.False(t, cfg.Keyboard.PredictionEnabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// unset keys keep their defaults
	assert.Equal(t, ime.DefaultWordSeparators, cfg.Keyboard.WordSeparators)

	opts, err := cfg.EngineOptions()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, opts.LongPressThreshold)
	assert.Equal(t, shift.Symbolic, opts.StartMode)
	sibling, ok := opts.Remap.Lookup('q')
	require.True(t, ok)
	assert.EqualValues(t, '\'', sibling)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "keying.json", `{"version": 1, "keyboard": {"word_separators": " ."}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, " .", cfg.Keyboard.WordSeparators)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "keying.yaml", "version: 1\nmetrics:\n  enabled: true\n  address: 127.0.0.1:9000\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9000", cfg.Metrics.Address)
}

func TestLoadMalformed(t *testing.T) {
	path := writeFile(t, "keying.toml", "version = [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KEYING_LONG_PRESS_MS", "250")
	t.Setenv("KEYING_PREDICTION", "false")
	t.Setenv("KEYING_LOG_LEVEL", "warn")
	t.Setenv("KEYING_LOG_PATH", "/tmp/k.log")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Keyboard.LongPressThresholdMs)
	assert.False(t, cfg.Keyboard.PredictionEnabled)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/tmp/k.log", cfg.Logging.FilePath)
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("KEYING_LONG_PRESS_MS", "soon")
	t.Setenv("KEYING_PREDICTION", "maybe")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, 150, cfg.Keyboard.LongPressThresholdMs)
	assert.True(t, cfg.Keyboard.PredictionEnabled)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"version", func(c *Config) { c.Version = 2 }, "version"},
		{"threshold zero", func(c *Config) { c.Keyboard.LongPressThresholdMs = 0 }, "keyboard.long_press_threshold_ms"},
		{"threshold huge", func(c *Config) { c.Keyboard.LongPressThresholdMs = 5000 }, "keyboard.long_press_threshold_ms"},
		{"no separators", func(c *Config) { c.Keyboard.WordSeparators = "" }, "keyboard.word_separators"},
		{"odd mapping", func(c *Config) { c.Keyboard.LongPressMappings = "qwe" }, "keyboard.long_press_mappings"},
		{"odd multibyte mapping", func(c *Config) { c.Keyboard.LongPressMappings = "éèà" }, "keyboard.long_press_mappings"},
		{"start mode", func(c *Config) { c.Keyboard.StartMode = "emoji" }, "keyboard.start_mode"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log output", func(c *Config) { c.Logging.Output = "syslog" }, "logging.output"},
		{"log file", func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }, "logging.file_path"},
		{"log size", func(c *Config) { c.Logging.MaxSizeMB = 0 }, "logging.max_size_mb"},
		{"log backups", func(c *Config) { c.Logging.MaxBackups = -1 }, "logging.max_backups"},
		{"bus name", func(c *Config) { c.IBus.BusName = "keying" }, "ibus.bus_name"},
		{"engine name", func(c *Config) { c.IBus.EngineName = "" }, "ibus.engine_name"},
		{"metrics address", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Address = "nope" }, "metrics.address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, []string{tt.field}, verrs.Fields())
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestMultibyteEvenMappingIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Keyboard.LongPressMappings = "eéaà"
	assert.NoError(t, cfg.Validate())
}

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		doc     string
		wantErr bool
	}{
		{"empty toml", FormatTOML, "", false},
		{"toml ints", FormatTOML, "version = 1\n[keyboard]\nlong_press_threshold_ms = 200\n", false},
		{"unknown section", FormatTOML, "[storage]\npath = \"x\"\n", true},
		{"unknown key", FormatTOML, "[keyboard]\nspeed = 3\n", true},
		{"wrong type", FormatTOML, "[keyboard]\nprediction_enabled = \"yes\"\n", true},
		{"out of range", FormatJSON, `{"keyboard": {"long_press_threshold_ms": 9000}}`, true},
		{"bad enum", FormatYAML, "logging:\n  level: chatty\n", true},
		{"yaml ok", FormatYAML, "keyboard:\n  start_mode: symbolic\n", false},
		{"wrong version", FormatJSON, `{"version": 3}`, true},
		{"not json", FormatJSON, `{`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument([]byte(tt.doc), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatFromPath("a.toml"))
	assert.Equal(t, FormatJSON, FormatFromPath("a.json"))
	assert.Equal(t, FormatYAML, FormatFromPath("a.yaml"))
	assert.Equal(t, FormatYAML, FormatFromPath("a.yml"))
	assert.Equal(t, FormatTOML, FormatFromPath("a.conf"))
}

func TestEncodedDefaultsRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, DefaultConfig(), format))
			require.NoError(t, ValidateDocument(buf.Bytes(), format))

			cfg := &Config{}
			require.NoError(t, Decode(buf.Bytes(), format, cfg))
			assert.Equal(t, DefaultConfig(), cfg)
		})
	}
}

func TestSaveConfigAndLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "keying.toml")

	cfg, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.FileExists(t, path)

	cfg.Keyboard.LongPressThresholdMs = 400
	require.NoError(t, SaveConfig(cfg, path))

	again, created, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 400, again.Keyboard.LongPressThresholdMs)
}

func TestLoggerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"
	cfg.Logging.LogText = true

	lc, err := cfg.LoggerConfig("ibus")
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, lc.Level)
	assert.Equal(t, logging.FormatJSON, lc.Format)
	assert.True(t, lc.LogText)
	assert.Equal(t, "ibus", lc.Component)
	assert.EqualValues(t, 10, lc.MaxSize)
}

func TestClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Keyboard.StartMode = "symbolic"
	assert.Equal(t, "alphabetic", cfg.Keyboard.StartMode)
}

func TestLoaderRejectsInvalidFile(t *testing.T) {
	path := writeFile(t, "keying.toml", "[keyboard]\nlong_press_threshold_ms = 0\n")
	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}

func TestLoaderHotReload(t *testing.T) {
	path := writeFile(t, "keying.toml", "version = 1\n")

	l := NewLoader(path)
	defer l.Close()
	_, err := l.Load()
	require.NoError(t, err)

	changed := make(chan *Config, 1)
	l.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})
	require.NoError(t, l.Watch())

	require.NoError(t, os.WriteFile(path, []byte("version = 1\n[keyboard]\nlong_press_threshold_ms = 321\n"), 0600))

	select {
	case c := <-changed:
		assert.Equal(t, 321, c.Keyboard.LongPressThresholdMs)
		assert.Equal(t, 321, l.Config().Keyboard.LongPressThresholdMs)
	case err := <-l.Errors():
		t.Fatalf("reload error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestLoaderKeepsConfigOnBadReload(t *testing.T) {
	path := writeFile(t, "keying.toml", "version = 1\n")

	l := NewLoader(path)
	defer l.Close()
	_, err := l.Load()
	require.NoError(t, err)
	require.NoError(t, l.Watch())

	require.NoError(t, os.WriteFile(path, []byte("[keyboard]\nstart_mode = \"emoji\"\n"), 0600))

	select {
	case err := <-l.Errors():
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
	assert.Equal(t, "alphabetic", l.Config().Keyboard.StartMode)
	assert.Error(t, l.LastError())
}
