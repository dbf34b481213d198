package transcriber

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Buffered accumulates raw audio chunks and flushes them to a
// BatchAdapter on a fixed cadence. Sub-threshold buffers are discarded
// without a provider call; adapter failures are logged and the next
// scheduled flush retries naturally.
type Buffered struct {
	adapter  BatchAdapter
	cfg      Config
	buffer   *audioBuffer
	events   chan Event
	flushReq chan chan struct{}

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

type audioBuffer struct {
	mu      sync.Mutex
	data    []byte
	maxSize int
}

func NewBuffered(cfg Config, adapter BatchAdapter) *Buffered {
	cfg = cfg.withDefaults()
	return &Buffered{
		adapter:  adapter,
		cfg:      cfg,
		buffer:   &audioBuffer{maxSize: 64 * cfg.MinFlushBytes},
		events:   make(chan Event, 32),
		flushReq: make(chan chan struct{}),
	}
}

func (t *Buffered) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("transcriber: already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.running = true

	t.wg.Add(1)
	go t.run(runCtx)

	return nil
}

func (t *Buffered) Push(chunk []byte) error {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()

	if !running {
		return fmt.Errorf("transcriber: not running")
	}
	t.buffer.add(chunk)
	return nil
}

// Flush hands a flush request to the worker and waits until the
// resulting transcription call, if any, has completed.
func (t *Buffered) Flush(ctx context.Context) error {
	t.mu.Lock()
	running := t.running
	t.mu.Unlock()

	if !running {
		return fmt.Errorf("transcriber: not running")
	}

	done := make(chan struct{})
	select {
	case t.flushReq <- done:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Buffered) Events() <-chan Event {
	return t.events
}

// Close stops the flush timer and drops buffered-but-unflushed audio.
// An in-flight transcription result is abandoned, never delivered.
func (t *Buffered) Close() error {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return nil
	}
	t.running = false
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()

	discarded := t.buffer.flush()
	if len(discarded) > 0 {
		log.Printf("transcriber: discarded %d buffered bytes on close", len(discarded))
	}
	return nil
}

func (t *Buffered) run(ctx context.Context) {
	defer func() {
		close(t.events)
		t.wg.Done()
	}()

	ticker := time.NewTicker(t.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			t.flushBuffer(ctx)

		case done := <-t.flushReq:
			t.flushBuffer(ctx)
			close(done)
		}
	}
}

func (t *Buffered) flushBuffer(ctx context.Context) {
	audioData := t.buffer.flush()
	if len(audioData) == 0 {
		return
	}
	if len(audioData) < t.cfg.MinFlushBytes {
		log.Printf("transcriber: discarding %d byte buffer, below %d byte minimum", len(audioData), t.cfg.MinFlushBytes)
		return
	}

	start := time.Now()
	text, err := t.adapter.Transcribe(ctx, audioData)
	if err != nil {
		log.Printf("transcriber: transcription of %d bytes failed after %v: %v", len(audioData), time.Since(start), err)
		if IsFatalTranscriptionError(err) {
			t.sendEvent(ctx, Event{Err: err})
		}
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Printf("transcriber: empty result after %v", time.Since(start))
		return
	}

	log.Printf("transcriber: transcribed %d bytes in %v", len(audioData), time.Since(start))
	t.sendEvent(ctx, Event{Text: text, IsFinal: true})
}

func (t *Buffered) sendEvent(ctx context.Context, ev Event) {
	if ctx.Err() != nil {
		return
	}
	select {
	case t.events <- ev:
	case <-ctx.Done():
	}
}

func (b *audioBuffer) add(chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, chunk...)

	// keep only the most recent audio if a stalled flush lets the
	// buffer run away
	if b.maxSize > 0 && len(b.data) > b.maxSize*2 {
		b.data = b.data[len(b.data)-b.maxSize:]
	}
}

func (b *audioBuffer) flush() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.data) == 0 {
		return nil
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	b.data = b.data[:0]
	return out
}
