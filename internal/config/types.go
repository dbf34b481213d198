package config

import "time"

type Config struct {
	Server        ServerConfig        `toml:"server"`
	Session       SessionConfig       `toml:"session"`
	Transcription TranscriptionConfig `toml:"transcription"`
	Rules         RulesConfig         `toml:"rules"`
	Publish       PublishConfig       `toml:"publish"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type SessionConfig struct {
	Debounce          time.Duration `toml:"debounce"`
	InboundBufferSize int           `toml:"inbound_buffer_size"`
}

type TranscriptionConfig struct {
	Provider      string        `toml:"provider"` // "openai", "simulated", "realtime"
	APIKey        string        `toml:"api_key"`
	Model         string        `toml:"model"`
	Language      string        `toml:"language"`
	RealtimeURL   string        `toml:"realtime_url"`
	FlushInterval time.Duration `toml:"flush_interval"`
	MinFlushBytes int           `toml:"min_flush_bytes"`
}

type RulesConfig struct {
	Path string `toml:"path"` // empty uses the built-in rule set
}

type PublishConfig struct {
	Driver  string `toml:"driver"` // "log", "nats", "none"
	URL     string `toml:"url"`
	Subject string `toml:"subject"`
}
