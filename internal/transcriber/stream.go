package transcriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var streamRetryDelays = []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}

// messages exchanged with the realtime transcription service
type streamControl struct {
	Type string `json:"type"`
}

type streamResponse struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

// Stream is the realtime provider: audio chunks go straight out over a
// websocket and partial/final text comes back as it is recognized.
type Stream struct {
	cfg    Config
	events chan Event

	mu      sync.Mutex
	conn    *websocket.Conn
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	maxRetries int
	flushDone  chan struct{}
}

func NewStream(cfg Config) *Stream {
	return &Stream{
		cfg:        cfg.withDefaults(),
		events:     make(chan Event, 32),
		maxRetries: 3,
		flushDone:  make(chan struct{}, 1),
	}
}

func (s *Stream) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("transcriber: already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.connectLocked(); err != nil {
		return err
	}
	s.started = true

	s.wg.Add(1)
	go s.readLoop()

	log.Printf("stream: connected to %s", s.cfg.RealtimeURL)
	return nil
}

// connectLocked dials the realtime service. Must be called with mu held.
func (s *Stream) connectLocked() error {
	headers := http.Header{}
	if s.cfg.APIKey != "" {
		headers.Set("Authorization", "Token "+s.cfg.APIKey)
	}
	if s.cfg.Language != "" {
		headers.Set("Accept-Language", s.cfg.Language)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(s.ctx, s.cfg.RealtimeURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("stream: dial failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("websocket dial: %w", err)
	}
	s.conn = conn
	return nil
}

// reconnect re-establishes the websocket with bounded backoff. Returns
// false when the retries are exhausted or the stream is closing.
func (s *Stream) reconnect() bool {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := streamRetryDelays[attempt-1]
			log.Printf("stream: reconnect attempt %d/%d after %v", attempt+1, s.maxRetries, delay)
			select {
			case <-s.ctx.Done():
				return false
			case <-time.After(delay):
			}
		} else {
			select {
			case <-s.ctx.Done():
				return false
			default:
			}
			log.Printf("stream: reconnect attempt %d/%d", attempt+1, s.maxRetries)
		}

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		err := s.connectLocked()
		s.mu.Unlock()

		if err == nil {
			log.Printf("stream: reconnected")
			return true
		}
		log.Printf("stream: reconnect failed: %v", err)
	}
	return false
}

func (s *Stream) readLoop() {
	defer func() {
		close(s.events)
		s.wg.Done()
	}()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()

		if conn == nil {
			if !s.reconnect() {
				s.sendEvent(Event{Err: NewFatalTranscriptionError(fmt.Errorf("connection lost after %d attempts", s.maxRetries))})
				return
			}
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			log.Printf("stream: read error: %v, attempting reconnection", err)
			if !s.reconnect() {
				s.sendEvent(Event{Err: NewFatalTranscriptionError(fmt.Errorf("websocket read: %w", err))})
				return
			}
			continue
		}

		var resp streamResponse
		if err := json.Unmarshal(message, &resp); err != nil {
			log.Printf("stream: parse error: %v", err)
			continue
		}

		switch resp.Type {
		case "partial":
			if resp.Text != "" {
				s.sendEvent(Event{Text: resp.Text, IsFinal: false})
			}

		case "final":
			if resp.Text != "" {
				s.sendEvent(Event{Text: resp.Text, IsFinal: true})
			}
			select {
			case s.flushDone <- struct{}{}:
			default:
			}

		case "error":
			log.Printf("stream: service error: %s", resp.Message)
			s.sendEvent(Event{Err: fmt.Errorf("stream: %s", resp.Message)})

		default:
			// tolerate unknown message types from newer services
			log.Printf("stream: unknown message type: %s", resp.Type)
		}
	}
}

func (s *Stream) sendEvent(ev Event) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

// Push sends the chunk to the service right away as a binary frame.
func (s *Stream) Push(chunk []byte) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("transcriber: not running")
	}
	conn := s.conn
	s.mu.Unlock()

	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	if conn == nil {
		return fmt.Errorf("no connection")
	}

	s.mu.Lock()
	err := conn.WriteMessage(websocket.BinaryMessage, chunk)
	s.mu.Unlock()

	if err != nil {
		log.Printf("stream: write error: %v, attempting reconnection", err)
		if s.reconnect() {
			s.mu.Lock()
			err = s.conn.WriteMessage(websocket.BinaryMessage, chunk)
			s.mu.Unlock()
			if err == nil {
				return nil
			}
		}
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// Flush asks the service to commit whatever it is holding and waits
// for the resulting final segment.
func (s *Stream) Flush(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.conn == nil {
		s.mu.Unlock()
		return nil
	}
	conn := s.conn
	s.mu.Unlock()

	// drop a stale completion signal from an earlier segment
	select {
	case <-s.flushDone:
	default:
	}

	s.mu.Lock()
	err := conn.WriteJSON(streamControl{Type: "flush"})
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("flush write: %w", err)
	}

	select {
	case <-s.flushDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

func (s *Stream) Events() <-chan Event {
	return s.events
}

func (s *Stream) Close() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	conn := s.conn
	s.started = false
	s.mu.Unlock()

	// close outside the lock, the reader may be blocked mid-read
	if conn != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}

	s.wg.Wait()
	log.Printf("stream: closed")
	return nil
}
