package config

import (
	"fmt"

	"github.com/sirenlab/calltriage/internal/language"
	"github.com/sirenlab/calltriage/internal/transcriber"
)

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("invalid server.addr: empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid server.read_timeout: %v", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid server.write_timeout: %v", c.Server.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid server.shutdown_timeout: %v", c.Server.ShutdownTimeout)
	}

	if c.Session.Debounce <= 0 {
		return fmt.Errorf("invalid session.debounce: %v", c.Session.Debounce)
	}
	if c.Session.InboundBufferSize <= 0 {
		return fmt.Errorf("invalid session.inbound_buffer_size: %d", c.Session.InboundBufferSize)
	}

	if c.Transcription.Provider == "" {
		return fmt.Errorf("invalid transcription.provider: empty")
	}
	info, ok := transcriber.Lookup(c.Transcription.Provider)
	if !ok {
		return fmt.Errorf("unsupported transcription.provider: %s (must be one of %v)",
			c.Transcription.Provider, transcriber.Providers())
	}
	// A missing API key is deliberately not checked here: the transcriber
	// falls back to the simulated provider so sessions keep working end
	// to end without credentials.
	if info.Streaming && c.Transcription.RealtimeURL == "" {
		return fmt.Errorf("transcription.realtime_url required when transcription.provider = %q", c.Transcription.Provider)
	}

	if c.Transcription.Model == "" {
		return fmt.Errorf("invalid transcription.model: empty")
	}
	if !info.SupportsModel(c.Transcription.Model) {
		return fmt.Errorf("transcription.model %q not supported by provider %q (models: %v)",
			c.Transcription.Model, c.Transcription.Provider, info.Models)
	}
	if !language.IsValidCode(c.Transcription.Language) {
		return fmt.Errorf("invalid transcription.language: %s (use empty string for auto-detect or ISO-639-1 codes like 'en', 'es', 'fr')", c.Transcription.Language)
	}
	if c.Transcription.FlushInterval <= 0 {
		return fmt.Errorf("invalid transcription.flush_interval: %v", c.Transcription.FlushInterval)
	}
	if c.Transcription.MinFlushBytes <= 0 {
		return fmt.Errorf("invalid transcription.min_flush_bytes: %d", c.Transcription.MinFlushBytes)
	}

	switch c.Publish.Driver {
	case "log", "none":
	case "nats":
		if c.Publish.URL == "" {
			return fmt.Errorf("publish.url required when publish.driver = \"nats\"")
		}
		if c.Publish.Subject == "" {
			return fmt.Errorf("publish.subject required when publish.driver = \"nats\"")
		}
	default:
		return fmt.Errorf("invalid publish.driver: %s (must be log, nats, or none)", c.Publish.Driver)
	}

	return nil
}
