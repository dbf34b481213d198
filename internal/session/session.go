package session

import (
	"context"
	"log"
	"time"

	"github.com/sirenlab/calltriage/internal/assess"
	"github.com/sirenlab/calltriage/internal/incident"
	"github.com/sirenlab/calltriage/internal/policy"
	"github.com/sirenlab/calltriage/internal/publish"
	"github.com/sirenlab/calltriage/internal/transcriber"
	"github.com/sirenlab/calltriage/internal/transport"
)

// finalFlushTimeout bounds the end-of-session flush so a hung transcription
// call cannot hold the connection open forever.
const finalFlushTimeout = 10 * time.Second

type Options struct {
	Rules             []policy.Rule
	Debounce          time.Duration
	InboundBufferSize int
	Publisher         publish.Publisher
}

// Session wires one connection to its own transcriber and coordinator.
// Everything runs on the Run goroutine: inbound messages, transcription
// events, and the debounce timer are handled one at a time in arrival order,
// so no session state needs a lock.
type Session struct {
	id      string
	conn    *transport.Conn
	adapter transcriber.Transcriber
	coord   *assess.Coordinator
	pub     publish.Publisher

	inboundBufferSize int
	inbound           <-chan transport.Inbound
}

func New(id string, conn *transport.Conn, adapter transcriber.Transcriber, opts Options) *Session {
	s := &Session{
		id:                id,
		conn:              conn,
		adapter:           adapter,
		pub:               opts.Publisher,
		inboundBufferSize: opts.InboundBufferSize,
	}
	if s.pub == nil {
		s.pub = publish.Nop{}
	}

	s.coord = assess.New(opts.Rules, opts.Debounce, s.emit)
	return s
}

// Run drives the session until the client ends it, the connection drops, or
// ctx is cancelled. It always tears the session down on return: the adapter
// is closed, the coordinator reset, and the connection closed, so no timers
// outlive the session.
func (s *Session) Run(ctx context.Context) error {
	log.Printf("Session %s: started", s.id)
	defer s.teardown()
	s.publishRecord(publish.KindSessionStarted, incident.Snapshot{})

	if err := s.adapter.Start(ctx); err != nil {
		s.conn.SendError("transcription unavailable")
		return err
	}

	s.inbound = s.conn.Inbound(s.inboundBufferSize)
	events := s.adapter.Events()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Session %s: context cancelled, stopping", s.id)
			return ctx.Err()

		case in, ok := <-s.inbound:
			if !ok {
				log.Printf("Session %s: connection closed by client", s.id)
				return nil
			}
			switch in.Kind {
			case transport.InboundAudio:
				if err := s.adapter.Push(in.Audio); err != nil {
					log.Printf("Session %s: failed to push audio: %v", s.id, err)
				}
			case transport.InboundEnd:
				s.finish(ctx)
				return nil
			}

		case ev, ok := <-events:
			if !ok {
				log.Printf("Session %s: transcriber stopped", s.id)
				return nil
			}
			s.handleEvent(ev)

		case <-s.coord.TimerC():
			s.coord.HandleTimerFired()
		}
	}
}

func (s *Session) handleEvent(ev transcriber.Event) {
	if ev.Err != nil {
		log.Printf("Session %s: transcription error: %v", s.id, ev.Err)
		s.conn.SendError(ev.Err.Error())
		return
	}

	if !ev.IsFinal {
		if err := s.conn.SendTranscriptDelta(ev.Text); err != nil {
			log.Printf("Session %s: failed to send transcript delta: %v", s.id, err)
		}
		return
	}

	if err := s.conn.SendTranscriptFinal(ev.Text); err != nil {
		log.Printf("Session %s: failed to send transcript final: %v", s.id, err)
	}
	s.coord.HandleFinalText(ev.Text)
}

// finish handles the end-of-session control message: flush whatever audio is
// still buffered, process the resulting events, then force out any pending
// recommendation so the client never misses the last update.
func (s *Session) finish(ctx context.Context) {
	log.Printf("Session %s: end of session, flushing", s.id)

	flushCtx, cancel := context.WithTimeout(ctx, finalFlushTimeout)
	defer cancel()
	if err := s.adapter.Flush(flushCtx); err != nil {
		log.Printf("Session %s: final flush failed: %v", s.id, err)
	}

	s.drainEvents()
	s.coord.FlushPending()
}

// drainEvents processes transcription events already queued. Flush completes
// before this runs, so anything the flush produced is in the channel buffer.
func (s *Session) drainEvents() {
	for {
		select {
		case ev, ok := <-s.adapter.Events():
			if !ok {
				return
			}
			s.handleEvent(ev)
		default:
			return
		}
	}
}

func (s *Session) teardown() {
	if err := s.adapter.Close(); err != nil {
		log.Printf("Session %s: failed to close transcriber: %v", s.id, err)
	}
	// Snapshot before the reset, so the ended record carries the final state.
	s.publishRecord(publish.KindSessionEnded, s.coord.Snapshot())
	s.coord.Reset()

	if err := s.conn.Close(); err != nil {
		log.Printf("Session %s: failed to close connection: %v", s.id, err)
	}
	// Unblock the reader so it can observe the closed connection.
	if s.inbound != nil {
		for range s.inbound {
		}
	}

	log.Printf("Session %s: closed", s.id)
}

// emit is the coordinator's single emission sink: one recommendation-update
// to the client, one record to the publisher.
func (s *Session) emit(snap incident.Snapshot) {
	rationales := make([]string, 0, len(snap.Rationales))
	for _, entry := range snap.Rationales {
		rationales = append(rationales, entry.Rationale)
	}

	payload := transport.RecommendationPayload{
		Units:      snap.Rationales,
		Rationales: rationales,
		Severity:   snap.Severity,
	}
	if err := s.conn.SendRecommendation(payload); err != nil {
		log.Printf("Session %s: failed to send recommendation: %v", s.id, err)
	}

	s.publishRecord(publish.KindRecommendation, snap)
}

// publishRecord maps an incident snapshot onto a publish record for one
// lifecycle moment and hands it to the publisher.
func (s *Session) publishRecord(kind publish.Kind, snap incident.Snapshot) {
	rationales := make([]string, 0, len(snap.Rationales))
	for _, entry := range snap.Rationales {
		rationales = append(rationales, entry.Rationale)
	}

	rec := publish.Record{
		Kind:       kind,
		SessionID:  s.id,
		Transcript: snap.Transcript,
		Units:      snap.Rationales,
		Rationales: rationales,
		Severity:   snap.Severity,
		Timestamp:  time.Now(),
	}
	if count, ok := policy.SuggestVictimCount(snap.Transcript); ok {
		rec.SuggestedCount = count
	}
	if err := s.pub.Publish(rec); err != nil {
		log.Printf("Session %s: failed to publish %s record: %v", s.id, kind, err)
	}
}
