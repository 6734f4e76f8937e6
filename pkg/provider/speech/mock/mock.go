// Package mock provides an in-memory mock implementation of
// [speech.Synthesizer] for use in unit tests.
//
// The mock records every method call and allows the test to configure return
// values via exported fields. Playback events are injected with [Synthesizer.Emit],
// letting tests script boundary, end, and error sequences deterministically.
package mock

import (
	"context"
	"sync"

	"github.com/lectorhq/lector/pkg/provider/speech"
)

// Compile-time interface assertion.
var _ speech.Synthesizer = (*Synthesizer)(nil)

// SpeakCall records the arguments of a single [Synthesizer.Speak] call.
type SpeakCall struct {
	// Text is the utterance text passed to Speak.
	Text string
	// Lang is the language code passed to Speak.
	Lang string
}

// Synthesizer is a mock implementation of [speech.Synthesizer].
// All exported *Error fields control return values.
// All exported *Calls and CallCount* fields accumulate invocation records.
type Synthesizer struct {
	mu sync.Mutex

	// SpeakError is the error returned by [Synthesizer.Speak].
	SpeakError error

	// PauseError overrides the error returned by [Synthesizer.Pause].
	// When nil, Pause returns speech.ErrNotSpeaking unless speaking.
	PauseError error

	// ResumeError overrides the error returned by [Synthesizer.Resume].
	// When nil, Resume returns speech.ErrNotSpeaking unless paused.
	ResumeError error

	// CloseError is returned by [Synthesizer.Close].
	CloseError error

	// SpeakCalls records all Speak invocations.
	SpeakCalls []SpeakCall

	// CallCountPause records how many times Pause was called.
	CallCountPause int

	// CallCountResume records how many times Resume was called.
	CallCountResume int

	// CallCountCancel records how many times Cancel was called.
	CallCountCancel int

	speaking bool
	paused   bool
	events   chan speech.Event
	closed   bool
}

// New creates a mock synthesizer with a buffered event stream.
func New() *Synthesizer {
	return &Synthesizer{
		events: make(chan speech.Event, 64),
	}
}

// Emit injects a playback event into the stream returned by
// [Synthesizer.Events]. End and interruption-error events also clear the
// speaking state, mirroring a real engine.
func (s *Synthesizer) Emit(ev speech.Event) {
	s.mu.Lock()
	if ev.Kind == speech.EventEnd || ev.Kind == speech.EventError {
		s.speaking = false
		s.paused = false
	}
	closed := s.closed
	s.mu.Unlock()
	if !closed {
		s.events <- ev
	}
}

// Speak implements [speech.Synthesizer].
func (s *Synthesizer) Speak(_ context.Context, text, lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SpeakCalls = append(s.SpeakCalls, SpeakCall{Text: text, Lang: lang})
	if s.SpeakError != nil {
		return s.SpeakError
	}
	s.speaking = true
	s.paused = false
	return nil
}

// Pause implements [speech.Synthesizer].
func (s *Synthesizer) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountPause++
	if s.PauseError != nil {
		return s.PauseError
	}
	if !s.speaking {
		return speech.ErrNotSpeaking
	}
	s.paused = true
	return nil
}

// Resume implements [speech.Synthesizer].
func (s *Synthesizer) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountResume++
	if s.ResumeError != nil {
		return s.ResumeError
	}
	if !s.paused {
		return speech.ErrNotSpeaking
	}
	s.paused = false
	return nil
}

// Cancel implements [speech.Synthesizer].
func (s *Synthesizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountCancel++
	s.speaking = false
	s.paused = false
}

// Speaking implements [speech.Synthesizer].
func (s *Synthesizer) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speaking
}

// Paused implements [speech.Synthesizer].
func (s *Synthesizer) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Events implements [speech.Synthesizer].
func (s *Synthesizer) Events() <-chan speech.Event {
	return s.events
}

// Close implements [speech.Synthesizer].
func (s *Synthesizer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return s.CloseError
}
