package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keying/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReplayPrintsTranscript(t *testing.T) {
	path := writeFile(t, "hi.yaml", "steps:\n  - type: \"hi \"\nexpect_committed: \"hi \"\n")

	var out bytes.Buffer
	require.NoError(t, cmdReplay(&out, []string{path}))

	got := out.String()
	assert.Contains(t, got, "=== hi\n")
	assert.Contains(t, got, `  compose "hi"`)
	assert.Contains(t, got, `committed: "hi "`)
	assert.Contains(t, got, "ok\n")
}

func TestReplayFailure(t *testing.T) {
	path := writeFile(t, "bad.yaml", "steps:\n  - type: a\nexpect_committed: b\n")

	var out bytes.Buffer
	err := cmdReplay(&out, []string{"-q", path})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 scripts failed")
	assert.Contains(t, out.String(), "FAIL")
}

func TestReplayQuietHidesPasses(t *testing.T) {
	path := writeFile(t, "pass.yaml", "steps:\n  - type: a\n")

	var out bytes.Buffer
	require.NoError(t, cmdReplay(&out, []string{"-q", path}))
	assert.Empty(t, out.String())
}

func TestReplayNeedsScript(t *testing.T) {
	assert.Error(t, cmdReplay(&bytes.Buffer{}, nil))
}

func TestConfigDefaultsIsLoadableTOML(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, cmdConfig(&out, []string{"defaults"}))

	var cfg config.Config
	_, err := toml.Decode(out.String(), &cfg)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Keyboard, cfg.Keyboard)
}

func TestConfigDefaultsFormats(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, cmdConfig(&out, []string{"defaults", "-format", "json"}))
	assert.Contains(t, out.String(), `"long_press_threshold_ms": 150`)

	assert.Error(t, cmdConfig(&bytes.Buffer{}, []string{"defaults", "-format", "ini"}))
}

func TestConfigCheck(t *testing.T) {
	good := writeFile(t, "keying.toml", "version = 1\n[keyboard]\nlong_press_threshold_ms = 200\n")
	var out bytes.Buffer
	require.NoError(t, cmdConfig(&out, []string{"check", good}))
	assert.Contains(t, out.String(), "ok (threshold 200ms")

	bad := writeFile(t, "keying.yaml", "version: 1\nlogging:\n  output: file\n  file_path: \"\"\n")
	out.Reset()
	err := cmdConfig(&out, []string{"check", bad})
	require.Error(t, err)
	assert.Contains(t, out.String(), "logging.file_path")
}

func TestConfigUnknownSubcommand(t *testing.T) {
	assert.Error(t, cmdConfig(&bytes.Buffer{}, []string{"frobnicate"}))
	assert.Error(t, cmdConfig(&bytes.Buffer{}, nil))
}

func TestConfigShowAppliesEnvOverrides(t *testing.T) {
	path := writeFile(t, "keying.yaml", "version: 1\nkeyboard:\n  long_press_threshold_ms: 220\n")
	t.Setenv("KEYING_PREDICTION", "false")

	var out bytes.Buffer
	require.NoError(t, cmdConfig(&out, []string{"show", "-format", "yaml", path}))

	assert.Contains(t, out.String(), "long_press_threshold_ms: 220")
	assert.Contains(t, out.String(), "prediction_enabled: false")
}

func TestConfigShowMalformed(t *testing.T) {
	path := writeFile(t, "keying.toml", "[keyboard\n")
	assert.Error(t, cmdConfig(&bytes.Buffer{}, []string{"show", path}))
}

func TestConfigInitCreatesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "keying.toml")

	var out bytes.Buffer
	require.NoError(t, cmdConfig(&out, []string{"init", path}))
	assert.Equal(t, "created "+path+"\n", out.String())

	cfg, err := config.NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Keyboard, cfg.Keyboard)

	out.Reset()
	require.NoError(t, cmdConfig(&out, []string{"init", path}))
	assert.Contains(t, out.String(), "already exists")
}
