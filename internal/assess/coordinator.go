package assess

import (
	"log"
	"time"

	"github.com/sirenlab/calltriage/internal/incident"
	"github.com/sirenlab/calltriage/internal/policy"
)

// DefaultDebounce is the minimum spacing between non-critical
// recommendation emissions for one session.
const DefaultDebounce = 1000 * time.Millisecond

// EmitFunc receives recommendation snapshots. Each session wires
// exactly one emitter, so fan-out stays with the transport layer.
type EmitFunc func(incident.Snapshot)

// Coordinator owns one session's incident state and decides when the
// current recommendation is worth emitting: critical matches go out
// immediately, everything else is debounced so bursts of transcript
// segments coalesce into a single update.
//
// A Coordinator is not safe for concurrent use. The owning session
// loop must call every method, including HandleTimerFired after a
// receive from TimerC, from the same goroutine.
type Coordinator struct {
	rules    []policy.Rule
	state    *incident.State
	debounce time.Duration
	emit     EmitFunc

	lastEmit time.Time
	timer    *time.Timer
	timerC   <-chan time.Time
}

func New(rules []policy.Rule, debounce time.Duration, emit EmitFunc) *Coordinator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Coordinator{
		rules:    rules,
		state:    incident.NewState(),
		debounce: debounce,
		emit:     emit,
		lastEmit: time.Now(),
	}
}

// HandleFinalText appends a confirmed transcript segment, re-evaluates
// the whole transcript, and applies the debounce/bypass policy. When
// no rule matches the accumulated transcript the prior recommendation
// stays untouched and nothing is emitted.
func (c *Coordinator) HandleFinalText(text string) {
	if !c.state.AppendTranscript(text) {
		return
	}

	result := policy.Evaluate(c.state.Transcript(), c.rules)
	if len(result.Units) == 0 {
		return
	}

	severity := result.Severity
	c.state.SetRecommendations(result.Units, policy.Deduplicate(result.Rationales), &severity)

	switch {
	case result.Critical:
		log.Printf("Coordinator: critical match, bypassing debounce")
		c.stopTimer()
		c.emitNow()
	case time.Since(c.lastEmit) >= c.debounce:
		c.emitNow()
	case c.timerC == nil:
		c.timer = time.NewTimer(c.debounce - time.Since(c.lastEmit))
		c.timerC = c.timer.C
	}
}

// TimerC returns the pending debounce timer's channel, or nil when
// nothing is scheduled. A nil channel blocks forever in a select, so
// session loops can select on it unconditionally.
func (c *Coordinator) TimerC() <-chan time.Time {
	return c.timerC
}

// HandleTimerFired emits the latest snapshot, not the one from
// scheduling time. Call exactly once per receive from TimerC.
func (c *Coordinator) HandleTimerFired() {
	c.timer = nil
	c.timerC = nil
	c.emitNow()
}

// FlushPending emits right away when an emission is scheduled, so a
// closing session can drain its last recommendation.
func (c *Coordinator) FlushPending() {
	if c.timerC == nil {
		return
	}
	c.stopTimer()
	c.emitNow()
}

// Snapshot exposes the current incident state for status surfaces.
func (c *Coordinator) Snapshot() incident.Snapshot {
	return c.state.Snapshot()
}

// Reset cancels any pending emission, clears the incident state, and
// restarts the emission clock. Safe to call in any state.
func (c *Coordinator) Reset() {
	c.stopTimer()
	c.state.Reset()
	c.lastEmit = time.Now()
}

func (c *Coordinator) emitNow() {
	c.lastEmit = time.Now()
	if c.emit != nil {
		c.emit(c.state.Snapshot())
	}
}

func (c *Coordinator) stopTimer() {
	if c.timer == nil {
		return
	}
	if !c.timer.Stop() {
		select {
		case <-c.timer.C:
		default:
		}
	}
	c.timer = nil
	c.timerC = nil
}
