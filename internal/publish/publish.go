package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/sirenlab/calltriage/internal/policy"
)

// Kind tags the lifecycle moment a record describes. Downstream consumers
// subscribe by kind: dispatch boards usually want recommendations only, audit
// sinks want all three.
type Kind string

const (
	KindSessionStarted Kind = "session.started"
	KindRecommendation Kind = "recommendation"
	KindSessionEnded   Kind = "session.ended"
)

// Record is what downstream dispatch systems receive for a session. Started
// records carry only the session id, recommendation and ended records also
// carry the transcript and the units that came out of it.
type Record struct {
	Kind           Kind                    `json:"kind"`
	SessionID      string                  `json:"sessionId"`
	Transcript     string                  `json:"transcript,omitempty"`
	Units          []policy.RationaleEntry `json:"units,omitempty"`
	Rationales     []string                `json:"rationales,omitempty"`
	Severity       policy.Severity         `json:"severity"`
	SuggestedCount int                     `json:"suggestedCount,omitempty"`
	Timestamp      time.Time               `json:"timestamp"`
}

type Publisher interface {
	Publish(rec Record) error
	Close() error
}

type Config struct {
	Driver  string // "log", "nats", "none"
	URL     string
	Subject string
}

func New(cfg Config) (Publisher, error) {
	switch cfg.Driver {
	case "log":
		return Log{}, nil
	case "nats":
		return NewNATS(cfg)
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported publish driver: %s", cfg.Driver)
	}
}

// Log writes records to the daemon log. The default driver: useful without
// any downstream infrastructure.
type Log struct{}

func (Log) Publish(rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	log.Printf("Publish: %s", payload)
	return nil
}

func (Log) Close() error { return nil }

// Nop is a Publisher that does absolutely nothing.
// Useful in unit tests or when publishing is disabled.
type Nop struct{}

func (Nop) Publish(rec Record) error { return nil }
func (Nop) Close() error             { return nil }
