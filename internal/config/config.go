// Package config loads the fsapi YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the YAML document.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Stream  StreamConfig  `yaml:"stream"`
}

// ServerConfig controls the HTTP listener and the data layout.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	DataDir         string        `yaml:"dataDir"`
	BaseDir         string        `yaml:"baseDir"` // user files; defaults to dataDir/archivos
	LogFile         string        `yaml:"logFile"` // access log; defaults to dataDir/log.txt
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// LoggingConfig controls the process log, not the access log.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}

// StreamConfig controls the websocket log stream.
type StreamConfig struct {
	Enabled bool `yaml:"enabled"`
	History int  `yaml:"history"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":3000",
			DataDir:         "data",
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Stream: StreamConfig{
			Enabled: true,
			History: 100,
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Read is Load without validation, for callers that apply overrides
// before validating.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and fills paths derived from DataDir.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.DataDir == "" {
		return errors.New("server.dataDir is required")
	}
	if c.Server.BaseDir == "" {
		c.Server.BaseDir = filepath.Join(c.Server.DataDir, "archivos")
	}
	if c.Server.LogFile == "" {
		c.Server.LogFile = filepath.Join(c.Server.DataDir, "log.txt")
	}
	if sameOrInside(c.Server.LogFile, c.Server.BaseDir) {
		return fmt.Errorf("server.logFile %s must not be inside server.baseDir %s", c.Server.LogFile, c.Server.BaseDir)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.maxBodyBytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdownTimeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unsupported logging.level: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unsupported logging.format: %s", c.Logging.Format)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return errors.New("logging rotation limits must not be negative")
	}

	if c.Stream.History < 0 {
		return fmt.Errorf("stream.history must not be negative, got %d", c.Stream.History)
	}
	return nil
}

// sameOrInside reports whether path equals dir or lies beneath it.
func sameOrInside(path, dir string) bool {
	p, err1 := filepath.Abs(path)
	d, err2 := filepath.Abs(dir)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(d, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
