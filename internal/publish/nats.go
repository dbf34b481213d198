package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

type NATS struct {
	conn   *nats.Conn
	prefix string
}

func NewNATS(cfg Config) (*NATS, error) {
	opts := []nats.Option{
		nats.Name("calltriage"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("Publish: nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("Publish: nats reconnected")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &NATS{conn: nc, prefix: cfg.Subject}, nil
}

func (n *NATS) Publish(rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	subject := n.subjectFor(rec.Kind)
	if err := n.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// subjectFor appends the record kind to the configured subject prefix, so a
// prefix of "calltriage" yields "calltriage.recommendation" and friends.
// Consumers subscribe to "<prefix>.>" for everything or to a single kind.
func (n *NATS) subjectFor(kind Kind) string {
	if kind == "" {
		kind = KindRecommendation
	}
	return n.prefix + "." + string(kind)
}

func (n *NATS) Close() error {
	n.conn.Close()
	return nil
}
