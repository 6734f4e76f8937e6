package speechsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lectorhq/lector/internal/reader"
	"github.com/lectorhq/lector/pkg/provider/speech"
)

// State is the playback state of a synchronizer.
type State string

const (
	StateIdle     State = "idle"
	StateSpeaking State = "speaking"
	StatePaused   State = "paused"
)

// Hooks are the side effects a synchronizer drives. Highlight and
// ClearHighlight move the single visual highlight; Notify surfaces one
// non-fatal message to the user. All hooks are required.
type Hooks struct {
	Highlight      func(unitIndex int)
	ClearHighlight func()
	Notify         func(message string)
}

// Recorder receives synchronizer observability signals. All methods must be
// cheap; they are called on the event path.
type Recorder interface {
	// BoundaryEvent records one consumed word boundary and whether it
	// resolved to a unit.
	BoundaryEvent(resolved bool)
	// DriftRecovered records a boundary resolved by fuzzy re-anchoring
	// after an offset-table miss.
	DriftRecovered()
}

// Synchronizer is the playback state machine: it starts and stops utterances
// on the external synthesizer, consumes its boundary stream, and maps each
// boundary back to the rendered unit that should carry the highlight.
//
// Every entry into the idle state clears the highlight, so no stale
// highlight survives the end of playback. It is safe for concurrent use.
type Synchronizer struct {
	synth    speech.Synthesizer
	hooks    Hooks
	recorder Recorder
	log      *slog.Logger

	mu       sync.Mutex
	state    State
	table    *OffsetTable
	fullText string
	lastUnit int
	notified bool
}

// New creates a Synchronizer over synth. recorder may be nil; logger may be
// nil, in which case the default logger is used.
func New(synth speech.Synthesizer, hooks Hooks, recorder Recorder, logger *slog.Logger) (*Synchronizer, error) {
	if synth == nil {
		return nil, errors.New("speechsync: synthesizer must not be nil")
	}
	if hooks.Highlight == nil || hooks.ClearHighlight == nil || hooks.Notify == nil {
		return nil, errors.New("speechsync: all hooks must be set")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		synth:    synth,
		hooks:    hooks,
		recorder: recorder,
		log:      logger,
		state:    StateIdle,
		lastUnit: -1,
	}, nil
}

// State returns the current playback state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Play starts playback of the page, or resumes it when paused. Starting from
// idle builds a fresh offset table over the current unit sequence, so a page
// rebuilt since the last playback highlights correctly. Play during active
// speech is a no-op.
func (s *Synchronizer) Play(ctx context.Context, units []reader.WordUnit, fullText, lang string) error {
	s.mu.Lock()
	switch s.state {
	case StateSpeaking:
		s.mu.Unlock()
		return nil
	case StatePaused:
		s.state = StateSpeaking
		s.mu.Unlock()
		if err := s.synth.Resume(); err != nil {
			return fmt.Errorf("speechsync: resume: %w", err)
		}
		return nil
	}

	s.table = BuildOffsetTable(units)
	s.fullText = fullText
	s.lastUnit = -1
	s.notified = false
	s.state = StateSpeaking
	s.mu.Unlock()

	if err := s.synth.Speak(ctx, fullText, lang); err != nil {
		s.toIdle()
		return fmt.Errorf("speechsync: speak: %w", err)
	}
	return nil
}

// Pause suspends active playback. A no-op unless speaking.
func (s *Synchronizer) Pause() error {
	s.mu.Lock()
	if s.state != StateSpeaking {
		s.mu.Unlock()
		return nil
	}
	s.state = StatePaused
	s.mu.Unlock()

	if err := s.synth.Pause(); err != nil && !errors.Is(err, speech.ErrNotSpeaking) {
		return fmt.Errorf("speechsync: pause: %w", err)
	}
	return nil
}

// Stop cancels playback and clears the highlight before returning, so a
// subsequent page navigation never inherits a stale highlight. Idempotent.
func (s *Synchronizer) Stop() {
	s.synth.Cancel()
	s.toIdle()
}

// Run consumes the synthesizer's event stream until it closes or ctx is
// cancelled. It is intended to run on its own goroutine per session.
func (s *Synchronizer) Run(ctx context.Context) {
	events := s.synth.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.HandleEvent(ev)
		}
	}
}

// HandleEvent applies one synthesizer event to the state machine. Events are
// applied in arrival order.
func (s *Synchronizer) HandleEvent(ev speech.Event) {
	switch ev.Kind {
	case speech.EventBoundary:
		s.handleBoundary(ev)
	case speech.EventEnd:
		s.toIdle()
	case speech.EventError:
		s.handleError(ev)
	}
}

func (s *Synchronizer) handleBoundary(ev speech.Event) {
	// Only word boundaries move the highlight; sentence and other
	// granularities are ignored.
	if ev.Name != "word" {
		return
	}

	s.mu.Lock()
	if s.state != StateSpeaking || s.table == nil {
		s.mu.Unlock()
		return
	}

	idx, ok := s.table.Lookup(ev.CharIndex)
	recovered := false
	if !ok {
		idx, ok = recoverUnit(s.table, s.fullText, ev.CharIndex, s.lastUnit)
		recovered = ok
	}
	if ok {
		s.lastUnit = idx
	}
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.BoundaryEvent(ok)
		if recovered {
			s.recorder.DriftRecovered()
		}
	}
	if !ok {
		// Offset drifted past the table; dropping the event keeps the
		// previous highlight in place.
		s.log.Debug("boundary offset outside table", "offset", ev.CharIndex)
		return
	}
	s.hooks.Highlight(idx)
}

func (s *Synchronizer) handleError(ev speech.Event) {
	if speech.IsInterruption(ev.Code) {
		// Artifact of our own cancel or restart, not a failure.
		s.toIdle()
		return
	}

	s.mu.Lock()
	first := !s.notified
	s.notified = true
	s.mu.Unlock()

	if first {
		s.log.Warn("speech synthesis failed", "code", ev.Code)
		s.hooks.Notify("Speech playback failed. Please try again.")
	}
	s.toIdle()
}

// toIdle transitions to idle and clears the highlight unconditionally.
func (s *Synchronizer) toIdle() {
	s.mu.Lock()
	s.state = StateIdle
	s.lastUnit = -1
	s.mu.Unlock()
	s.hooks.ClearHighlight()
}
