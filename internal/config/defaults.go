package config

import "time"

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8089",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			Debounce:          time.Second,
			InboundBufferSize: 64,
		},
		Transcription: TranscriptionConfig{
			Provider:      "openai",
			APIKey:        "",
			Model:         "whisper-1",
			Language:      "en",
			RealtimeURL:   "",
			FlushInterval: 2500 * time.Millisecond,
			MinFlushBytes: 1000,
		},
		Rules: RulesConfig{
			Path: "",
		},
		Publish: PublishConfig{
			Driver:  "log",
			URL:     "",
			Subject: "calltriage",
		},
	}
}
