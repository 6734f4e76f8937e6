// Package speech defines the synthesizer collaborator contract used by the
// reading session to drive speech playback.
//
// A Synthesizer accepts text and emits a stream of playback events: word
// boundaries as the utterance progresses, a completion event when the
// utterance finishes, and error events when playback fails. The engine that
// actually produces audio lives elsewhere (typically in the user's browser);
// implementations of this interface bridge to it.
package speech

import (
	"context"
	"errors"
	"strings"
)

// EventKind discriminates playback events.
type EventKind string

const (
	// EventBoundary marks the start of a spoken fragment within the
	// utterance text.
	EventBoundary EventKind = "boundary"

	// EventEnd marks the natural or cancelled end of the utterance.
	EventEnd EventKind = "end"

	// EventError reports a playback failure.
	EventError EventKind = "error"
)

// Event is a single playback event emitted by a Synthesizer.
//
// Events arrive in playback order on the channel returned by
// [Synthesizer.Events]. Boundary events carry the character offset of the
// fragment within the utterance text as passed to Speak.
type Event struct {
	Kind EventKind

	// Name is the boundary granularity reported by the engine, usually
	// "word" or "sentence". Only set on boundary events.
	Name string

	// CharIndex is the character offset of the fragment start within the
	// utterance text. Only meaningful on boundary events.
	CharIndex int

	// Code identifies the failure on error events (e.g. "network",
	// "synthesis-failed", "interrupted").
	Code string
}

// ErrNotSpeaking is returned by Pause and Resume when no utterance is active.
var ErrNotSpeaking = errors.New("speech: no active utterance")

// interruptionCodes are error codes produced as artifacts of deliberate
// cancellation rather than genuine failures.
var interruptionCodes = []string{
	"canceled",
	"interrupted",
	"synthesis-cancelled",
}

// IsInterruption reports whether code describes a cancellation artifact.
// Cancelling an utterance mid-playback makes many engines emit an error
// event; those must not be surfaced to the user.
func IsInterruption(code string) bool {
	for _, c := range interruptionCodes {
		if strings.EqualFold(code, c) {
			return true
		}
	}
	return false
}

// Synthesizer drives speech playback for one reading session.
//
// Implementations must be safe for concurrent use: playback control arrives
// from user interactions while events are consumed on a separate goroutine.
type Synthesizer interface {
	// Speak starts playback of text in the given language. At most one
	// utterance is active at a time; callers Cancel any previous
	// utterance first.
	Speak(ctx context.Context, text, lang string) error

	// Pause suspends the active utterance. Returns ErrNotSpeaking when
	// nothing is playing.
	Pause() error

	// Resume continues a paused utterance. Returns ErrNotSpeaking when
	// nothing is paused.
	Resume() error

	// Cancel stops the active utterance, if any. Idempotent: cancelling
	// with no active utterance is a no-op. Cancellation may surface as an
	// end event or as an error event whose code satisfies
	// [IsInterruption]; callers must tolerate either.
	Cancel()

	// Speaking reports whether an utterance is active (including paused).
	Speaking() bool

	// Paused reports whether the active utterance is paused.
	Paused() bool

	// Events returns the playback event stream. The channel is closed
	// when the synthesizer shuts down.
	Events() <-chan Event

	// Close releases the synthesizer and closes its event stream.
	Close() error
}
