package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "xproc.json", `{"socket":"/tmp/x.sock","log_level":"debug","poll_interval":"250ms"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.sock", cfg.Socket)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, defaultRequestTimeout, cfg.RequestTimeout)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "xproc.yaml", "log_format: json\nrequest_timeout: 5s\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	_, err := Load(writeFile(t, "bad.json", `{"poll_interval":"-1s"}`))
	assert.ErrorContains(t, err, "poll_interval must be > 0")

	_, err = Load(writeFile(t, "bad.yml", "request_timeout: soon\n"))
	assert.ErrorContains(t, err, "parse request_timeout")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(envSocket, "/run/xproc.sock")
	t.Setenv(envLogLevel, "info")
	t.Setenv(envPollInterval, "1s")
	t.Setenv(envRequestTimeout, "garbage")

	cfg, err := Load(writeFile(t, "c.json", `{"socket":"/from/file","request_timeout":"3s"}`))
	require.NoError(t, err)
	assert.Equal(t, "/run/xproc.sock", cfg.Socket)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}
