package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var ErrConfigNotFound = errors.New("config not found")

func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	calltriageDir := filepath.Join(configDir, "calltriage")
	if err := os.MkdirAll(calltriageDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return filepath.Join(calltriageDir, "config.toml"), nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: run calltriage init", ErrConfigNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
	}

	log.Printf("Config: loading configuration from %s", configPath)
	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyDefaults()

	log.Printf("Config: configuration loaded successfully")
	return &config, nil
}

// LoadOrDefault loads the config file, falling back to defaults when none
// exists. The daemon must come up without any on-disk configuration.
func LoadOrDefault() (*Config, error) {
	config, err := Load()
	if errors.Is(err, ErrConfigNotFound) {
		log.Printf("Config: no config file found, using defaults")
		return DefaultConfig(), nil
	}
	return config, err
}

// applyDefaults fills zero-valued fields so partial config files work.
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = def.Server.ReadTimeout
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = def.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}

	if c.Session.Debounce <= 0 {
		c.Session.Debounce = def.Session.Debounce
	}
	if c.Session.InboundBufferSize <= 0 {
		c.Session.InboundBufferSize = def.Session.InboundBufferSize
	}

	if c.Transcription.Provider == "" {
		c.Transcription.Provider = def.Transcription.Provider
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = def.Transcription.Model
	}
	if c.Transcription.FlushInterval <= 0 {
		c.Transcription.FlushInterval = def.Transcription.FlushInterval
	}
	if c.Transcription.MinFlushBytes <= 0 {
		c.Transcription.MinFlushBytes = def.Transcription.MinFlushBytes
	}

	if c.Publish.Driver == "" {
		c.Publish.Driver = def.Publish.Driver
	}
	if c.Publish.Subject == "" {
		c.Publish.Subject = def.Publish.Subject
	}
}
