// Package config loads the server's YAML tuning file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz       int    `yaml:"tick_rate_hz"`
	Listen           string `yaml:"listen"`
	Codec            string `yaml:"codec"`
	CompressPayloads bool   `yaml:"compress_payloads"`
	LayoutsDir       string `yaml:"layouts_dir"`

	Log     LogConfig     `yaml:"log"`
	Trace   TraceConfig   `yaml:"trace"`
	Session SessionConfig `yaml:"session"`
}

// LogConfig controls the rotating server log file. An empty File logs to stdout only.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TraceConfig controls the interaction trace written by eventlog.
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type SessionConfig struct {
	// MaxQueue bounds outgoing messages buffered per viewer.
	MaxQueue int `yaml:"max_queue"`
	// ReadLimitBytes caps a single inbound websocket message.
	ReadLimitBytes int64 `yaml:"read_limit_bytes"`
}

func Defaults() Config {
	return Config{
		ProtocolVersion: "1.0",
		TickRateHz:      20,
		Listen:          ":8080",
		Codec:           "json/v1",
		LayoutsDir:      "layouts",
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
		Trace: TraceConfig{
			Dir: "data/trace",
		},
		Session: SessionConfig{
			MaxQueue:       256,
			ReadLimitBytes: 1 << 20,
		},
	}
}

// Load reads path over Defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	c := Defaults()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	switch {
	case c.TickRateHz <= 0 || c.TickRateHz > 1000:
		return fmt.Errorf("tick_rate_hz out of range: %d", c.TickRateHz)
	case c.Listen == "":
		return fmt.Errorf("listen is empty")
	case c.Codec == "":
		return fmt.Errorf("codec is empty")
	case c.Session.MaxQueue <= 0:
		return fmt.Errorf("session.max_queue must be positive")
	}
	return nil
}
