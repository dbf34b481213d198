package transcriber

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Event is a single transcription outcome delivered to the session.
type Event struct {
	Text    string // transcribed text (trimmed)
	IsFinal bool   // true for confirmed segments, false for provisional ones
	Err     error  // non-nil when the provider failed fatally
}

// Transcriber hides the external speech-to-text boundary behind an
// event interface. Push never blocks on the network; transcription
// happens on the transcriber's own worker and surfaces on Events.
type Transcriber interface {
	// Start brings up the provider. The context bounds the lifetime of
	// all background work.
	Start(ctx context.Context) error

	// Push appends an audio chunk for later transcription.
	Push(chunk []byte) error

	// Flush forces buffered audio out to the provider and waits for
	// the in-flight transcription to finish.
	Flush(ctx context.Context) error

	// Events returns the result channel. It is closed after Close.
	Events() <-chan Event

	// Close stops timers and background work and discards any audio
	// that was buffered but never flushed.
	Close() error
}

// BatchAdapter is the one-shot transcription call against an external
// service: a byte buffer in, recognized text out.
type BatchAdapter interface {
	Transcribe(ctx context.Context, audioData []byte) (string, error)
}

// Config selects and tunes a transcription provider.
type Config struct {
	Provider      string // "openai", "simulated" or "realtime"
	APIKey        string
	Model         string
	Language      string
	RealtimeURL   string        // websocket endpoint for the realtime provider
	FlushInterval time.Duration // cadence of periodic buffer flushes
	MinFlushBytes int           // buffers below this size are discarded
}

const (
	DefaultFlushInterval = 2500 * time.Millisecond
	DefaultMinFlushBytes = 1000
	DefaultModel         = "whisper-1"
)

func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = "openai"
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.MinFlushBytes <= 0 {
		c.MinFlushBytes = DefaultMinFlushBytes
	}
	return c
}

// New builds a transcriber for the configured provider. A missing API
// key is not an error: the pipeline degrades to the simulated provider
// so everything downstream stays exercisable without credentials.
func New(cfg Config) (Transcriber, error) {
	cfg = cfg.withDefaults()

	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			log.Printf("transcriber: no API key configured, using simulated provider")
			return NewBuffered(cfg, NewSimulatedAdapter()), nil
		}
		return NewBuffered(cfg, NewOpenAIAdapter(cfg)), nil

	case "simulated":
		return NewBuffered(cfg, NewSimulatedAdapter()), nil

	case "realtime":
		if cfg.RealtimeURL == "" {
			return nil, fmt.Errorf("realtime provider requires a websocket URL")
		}
		return NewStream(cfg), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}
