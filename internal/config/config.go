// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads refstat settings from TOML with defaults overlaid.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Thermoquad/refstat/pkg/powermgr"
)

// Config is the full runtime configuration
type Config struct {
	Serial    SerialConfig
	WebSocket WebSocketConfig
	Session   SessionConfig
	Power     PowerConfig
	Log       LogConfig
	Record    RecordConfig
}

// SerialConfig selects the referee serial port. The referee UART runs 8N1.
type SerialConfig struct {
	Port     string
	Baud     int
	DataBits int
	Parity   string // none, odd or even
	StopBits int    // 1 or 2
}

// WebSocketConfig selects a WebSocket serial bridge instead of a local port
type WebSocketConfig struct {
	URL         string
	Username    string
	NoSSLVerify bool
}

// SessionConfig tunes the poll loop
type SessionConfig struct {
	PollInterval time.Duration
}

// PowerConfig enables the power manager decoder on the shared link
type PowerConfig struct {
	Enabled bool
	Decoder powermgr.Config
}

// LogConfig controls the console logger
type LogConfig struct {
	Level     string
	Timestamp bool
	NoColor   bool
}

// RecordConfig controls the SQLite journal
type RecordConfig struct {
	Path             string
	SnapshotInterval time.Duration
}

// refstat config.toml key mapping
type fileConfig struct {
	Serial struct {
		Port     string `toml:"port"`
		Baud     int    `toml:"baud"`
		DataBits int    `toml:"data_bits"`
		Parity   string `toml:"parity"`
		StopBits int    `toml:"stop_bits"`
	} `toml:"serial"`
	WebSocket struct {
		URL         string `toml:"url"`
		Username    string `toml:"username"`
		NoSSLVerify bool   `toml:"no_ssl_verify"`
	} `toml:"websocket"`
	Session struct {
		PollInterval string `toml:"poll_interval"`
	} `toml:"session"`
	Power struct {
		Enabled  bool      `toml:"enabled"`
		Encoding string    `toml:"encoding"`
		Scale    []float64 `toml:"scale"`
		Offset   []float64 `toml:"offset"`
	} `toml:"power"`
	Log struct {
		Level     string `toml:"level"`
		Timestamp bool   `toml:"timestamp"`
		NoColor   bool   `toml:"no_color"`
	} `toml:"log"`
	Record struct {
		Path             string `toml:"path"`
		SnapshotInterval string `toml:"snapshot_interval"`
	} `toml:"record"`
}

// Default returns the settings used when no config file is given
func Default() Config {
	return Config{
		Serial: SerialConfig{
			Port:     "/dev/usbReferee",
			Baud:     115200,
			DataBits: 8,
			Parity:   "none",
			StopBits: 1,
		},
		Session: SessionConfig{
			PollInterval: 10 * time.Millisecond,
		},
		Power: PowerConfig{
			Enabled: true,
			Decoder: powermgr.DefaultConfig(),
		},
		Log: LogConfig{
			Level:     "info",
			Timestamp: true,
		},
		Record: RecordConfig{
			Path:             "refstat.db",
			SnapshotInterval: time.Second,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("serial", "port") {
		cfg.Serial.Port = strings.TrimSpace(raw.Serial.Port)
	}
	if meta.IsDefined("serial", "baud") {
		cfg.Serial.Baud = raw.Serial.Baud
	}
	if meta.IsDefined("serial", "data_bits") {
		cfg.Serial.DataBits = raw.Serial.DataBits
	}
	if meta.IsDefined("serial", "parity") {
		cfg.Serial.Parity = strings.ToLower(strings.TrimSpace(raw.Serial.Parity))
	}
	if meta.IsDefined("serial", "stop_bits") {
		cfg.Serial.StopBits = raw.Serial.StopBits
	}
	if meta.IsDefined("websocket", "url") {
		cfg.WebSocket.URL = strings.TrimSpace(raw.WebSocket.URL)
	}
	if meta.IsDefined("websocket", "username") {
		cfg.WebSocket.Username = strings.TrimSpace(raw.WebSocket.Username)
	}
	if meta.IsDefined("websocket", "no_ssl_verify") {
		cfg.WebSocket.NoSSLVerify = raw.WebSocket.NoSSLVerify
	}
	if meta.IsDefined("session", "poll_interval") {
		d, err := parseDuration("session.poll_interval", raw.Session.PollInterval)
		if err != nil {
			return Config{}, err
		}
		cfg.Session.PollInterval = d
	}
	if meta.IsDefined("power", "enabled") {
		cfg.Power.Enabled = raw.Power.Enabled
	}
	if meta.IsDefined("power", "encoding") {
		enc, err := powermgr.ParseEncoding(strings.TrimSpace(raw.Power.Encoding))
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		cfg.Power.Decoder.Encoding = enc
	}
	if meta.IsDefined("power", "scale") {
		if err := copyChannels("power.scale", cfg.Power.Decoder.Scale[:], raw.Power.Scale); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("power", "offset") {
		if err := copyChannels("power.offset", cfg.Power.Decoder.Offset[:], raw.Power.Offset); err != nil {
			return Config{}, err
		}
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "timestamp") {
		cfg.Log.Timestamp = raw.Log.Timestamp
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}
	if meta.IsDefined("record", "path") {
		cfg.Record.Path = strings.TrimSpace(raw.Record.Path)
	}
	if meta.IsDefined("record", "snapshot_interval") {
		d, err := parseDuration("record.snapshot_interval", raw.Record.SnapshotInterval)
		if err != nil {
			return Config{}, err
		}
		cfg.Record.SnapshotInterval = d
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would make a command fail later
func (c Config) Validate() error {
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("load config: serial.baud must be positive, got %d", c.Serial.Baud)
	}
	if c.Serial.DataBits < 5 || c.Serial.DataBits > 8 {
		return fmt.Errorf("load config: serial.data_bits must be 5-8, got %d", c.Serial.DataBits)
	}
	switch c.Serial.Parity {
	case "none", "odd", "even":
	default:
		return fmt.Errorf("load config: serial.parity must be none, odd or even, got %q", c.Serial.Parity)
	}
	if c.Serial.StopBits != 1 && c.Serial.StopBits != 2 {
		return fmt.Errorf("load config: serial.stop_bits must be 1 or 2, got %d", c.Serial.StopBits)
	}
	if c.Session.PollInterval <= 0 {
		return fmt.Errorf("load config: session.poll_interval must be positive")
	}
	if c.Record.SnapshotInterval <= 0 {
		return fmt.Errorf("load config: record.snapshot_interval must be positive")
	}
	return nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("load config: %s: %w", key, err)
	}
	return d, nil
}

func copyChannels(key string, dst, src []float64) error {
	if len(src) > len(dst) {
		return fmt.Errorf("load config: %s has %d entries, max %d", key, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}
