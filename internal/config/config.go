package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	defaultLogLevel       = "warning"
	defaultLogFormat      = "text"
	defaultPollInterval   = 100 * time.Millisecond
	defaultRequestTimeout = 2 * time.Second

	envSocket         = "XPROC_SOCKET"
	envLogLevel       = "XPROC_LOG_LEVEL"
	envLogFormat      = "XPROC_LOG_FORMAT"
	envPollInterval   = "XPROC_POLL_INTERVAL"
	envRequestTimeout = "XPROC_REQUEST_TIMEOUT"
)

// Config aggregates the tunables shared by the CLI, the daemon and the
// panorama synchronizer.
type Config struct {
	// Socket overrides the daemon socket path. Empty means the default.
	Socket         string
	LogLevel       string
	LogFormat      string
	PollInterval   time.Duration
	RequestTimeout time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
		PollInterval:   defaultPollInterval,
		RequestTimeout: defaultRequestTimeout,
	}
}

// Load builds a Config from an optional JSON or YAML file plus environment
// overrides. The file format follows the extension; anything other than
// .yaml or .yml is read as JSON.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
		merge(&cfg, fileCfg)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func merge(dst *Config, src Config) {
	if src.Socket != "" {
		dst.Socket = src.Socket
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogFormat != "" {
		dst.LogFormat = src.LogFormat
	}
	if src.PollInterval != 0 {
		dst.PollInterval = src.PollInterval
	}
	if src.RequestTimeout != 0 {
		dst.RequestTimeout = src.RequestTimeout
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envSocket); v != "" {
		cfg.Socket = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(envLogFormat); v != "" {
		cfg.LogFormat = v
	}
	overrideDuration(envPollInterval, &cfg.PollInterval)
	overrideDuration(envRequestTimeout, &cfg.RequestTimeout)
}

func overrideDuration(name string, dst *time.Duration) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	dur, err := time.ParseDuration(v)
	switch {
	case err != nil:
		logrus.Warnf("invalid %s value %q: %v", name, v, err)
	case dur <= 0:
		logrus.Warnf("invalid %s value %q: must be > 0", name, v)
	default:
		*dst = dur
	}
}

type fileConfig struct {
	Socket         string `json:"socket" yaml:"socket"`
	LogLevel       string `json:"log_level" yaml:"log_level"`
	LogFormat      string `json:"log_format" yaml:"log_format"`
	PollInterval   string `json:"poll_interval" yaml:"poll_interval"`
	RequestTimeout string `json:"request_timeout" yaml:"request_timeout"`
}

func loadFromFile(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, err
	}

	cfg.Socket = raw.Socket
	cfg.LogLevel = raw.LogLevel
	cfg.LogFormat = raw.LogFormat
	if cfg.PollInterval, err = parsePositive("poll_interval", raw.PollInterval); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = parsePositive("request_timeout", raw.RequestTimeout); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parsePositive(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	if dur <= 0 {
		return 0, errors.New(field + " must be > 0")
	}
	return dur, nil
}
