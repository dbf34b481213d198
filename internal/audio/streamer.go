package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// StreamerConfig paces a recorded audio source into frames so it
// arrives at session speed instead of all at once.
type StreamerConfig struct {
	ChunkSize         int
	Interval          time.Duration // delay between frames; 0 streams flat out
	ChannelBufferSize int
}

func DefaultStreamerConfig() StreamerConfig {
	return StreamerConfig{
		ChunkSize:         4096,
		Interval:          125 * time.Millisecond,
		ChannelBufferSize: 20,
	}
}

// Streamer replays an audio source as a frame channel, the same shape
// a live capture would produce.
type Streamer struct {
	config    StreamerConfig
	streaming atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStreamer(config StreamerConfig) *Streamer {
	return &Streamer{config: config}
}

// StartFile streams the file at path. The returned channels close when
// the file is exhausted, the context ends, or Stop is called.
func (s *Streamer) StartFile(ctx context.Context, path string) (<-chan Frame, <-chan error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audio file: %w", err)
	}
	frameCh, errCh, err := s.Start(ctx, f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	// the replay loop owns the file now
	go func() {
		s.wg.Wait()
		f.Close()
	}()
	return frameCh, errCh, nil
}

func (s *Streamer) Start(ctx context.Context, src io.Reader) (<-chan Frame, <-chan error, error) {
	if s.streaming.Load() {
		return nil, nil, fmt.Errorf("already streaming")
	}
	if s.config.ChunkSize <= 0 {
		return nil, nil, fmt.Errorf("chunk size must be positive, got %d", s.config.ChunkSize)
	}

	streamCtx, cancel := context.WithCancel(ctx)

	frameCh := make(chan Frame, s.config.ChannelBufferSize)
	errCh := make(chan error, 1)

	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.streaming.Store(true)
	s.wg.Add(1)
	go s.replayLoop(streamCtx, src, frameCh, errCh)

	return frameCh, errCh, nil
}

func (s *Streamer) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Streamer) replayLoop(ctx context.Context, src io.Reader, frameCh chan<- Frame, errCh chan<- error) {
	defer func() {
		close(frameCh)
		close(errCh)
		s.streaming.Store(false)
		s.wg.Done()
	}()

	reader := bufio.NewReader(src)
	buf := make([]byte, s.config.ChunkSize)

	for {
		n, err := io.ReadFull(reader, buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])

			select {
			case frameCh <- Frame{Data: data, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}
		}

		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return
		}
		if err != nil {
			select {
			case errCh <- fmt.Errorf("read audio source: %w", err):
			default:
			}
			return
		}

		if s.config.Interval > 0 {
			select {
			case <-time.After(s.config.Interval):
			case <-ctx.Done():
				return
			}
		}
	}
}
