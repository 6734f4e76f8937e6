// Package browser implements [speech.Synthesizer] by delegating playback to
// the speech engine running in the user's browser.
//
// The server does not generate audio. Instead, playback commands (speak,
// pause, resume, cancel) are serialized as JSON frames and sent over the
// session's websocket, and the browser reports playback progress back as
// boundary, end, and error frames. The gateway owns the socket; it wires a
// send function into New and forwards inbound speech frames through
// HandleMessage.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/lectorhq/lector/pkg/provider/speech"
)

// Compile-time interface assertion.
var _ speech.Synthesizer = (*Synthesizer)(nil)

// SendFunc delivers one outbound frame to the browser. Implementations
// typically wrap a websocket write.
type SendFunc func(ctx context.Context, payload []byte) error

// command is the outbound frame shape.
type command struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Lang string `json:"lang,omitempty"`
}

// engineEvent is the inbound frame shape reported by the browser engine.
type engineEvent struct {
	Type      string `json:"type"`
	Name      string `json:"name,omitempty"`
	CharIndex int    `json:"charIndex,omitempty"`
	Code      string `json:"code,omitempty"`
}

// Synthesizer bridges [speech.Synthesizer] calls to a browser speech engine
// over a caller-provided send function. It is safe for concurrent use.
type Synthesizer struct {
	send SendFunc

	mu       sync.Mutex
	speaking bool
	paused   bool
	closed   bool
	events   chan speech.Event
}

// New creates a browser-backed synthesizer. send must be non-nil and is
// called for every outbound playback command.
func New(send SendFunc) (*Synthesizer, error) {
	if send == nil {
		return nil, errors.New("browser: send function must not be nil")
	}
	return &Synthesizer{
		send:   send,
		events: make(chan speech.Event, 64),
	}, nil
}

// Speak implements [speech.Synthesizer]. It forwards the utterance to the
// browser engine; boundary progress arrives asynchronously via Events.
func (s *Synthesizer) Speak(ctx context.Context, text, lang string) error {
	if err := s.sendCommand(ctx, command{Type: "speak", Text: text, Lang: lang}); err != nil {
		return err
	}
	s.mu.Lock()
	s.speaking = true
	s.paused = false
	s.mu.Unlock()
	return nil
}

// Pause implements [speech.Synthesizer].
func (s *Synthesizer) Pause() error {
	s.mu.Lock()
	if !s.speaking {
		s.mu.Unlock()
		return speech.ErrNotSpeaking
	}
	s.paused = true
	s.mu.Unlock()
	return s.sendCommand(context.Background(), command{Type: "pause"})
}

// Resume implements [speech.Synthesizer].
func (s *Synthesizer) Resume() error {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return speech.ErrNotSpeaking
	}
	s.paused = false
	s.mu.Unlock()
	return s.sendCommand(context.Background(), command{Type: "resume"})
}

// Cancel implements [speech.Synthesizer]. The browser engine may answer with
// an end frame or an interruption-coded error frame; both are forwarded on
// the event stream.
func (s *Synthesizer) Cancel() {
	s.mu.Lock()
	wasSpeaking := s.speaking
	s.speaking = false
	s.paused = false
	s.mu.Unlock()
	if !wasSpeaking {
		return
	}
	// Send failures on cancel are not actionable; the state is already
	// cleared locally and socket teardown reaches the same outcome.
	_ = s.sendCommand(context.Background(), command{Type: "cancel"})
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
	return nil
}

// HandleMessage decodes one inbound speech frame from the browser and pushes
// the corresponding event onto the stream. Unknown frame types are ignored so
// protocol additions do not break older servers.
func (s *Synthesizer) HandleMessage(payload []byte) error {
	var ev engineEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("browser: decode engine event: %w", err)
	}

	var out speech.Event
	switch ev.Type {
	case "boundary":
		out = speech.Event{Kind: speech.EventBoundary, Name: ev.Name, CharIndex: ev.CharIndex}
	case "end":
		out = speech.Event{Kind: speech.EventEnd}
	case "error":
		out = speech.Event{Kind: speech.EventError, Code: ev.Code}
	default:
		return nil
	}

	s.mu.Lock()
	if out.Kind == speech.EventEnd || out.Kind == speech.EventError {
		s.speaking = false
		s.paused = false
	}
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil
	}

	select {
	case s.events <- out:
	default:
		// A consumer that stopped draining must not wedge the socket
		// read loop; the synchronizer resets state on the next cycle.
	}
	return nil
}

func (s *Synthesizer) sendCommand(ctx context.Context, cmd command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("browser: marshal %s command: %w", cmd.Type, err)
	}
	if err := s.send(ctx, data); err != nil {
		return fmt.Errorf("browser: send %s command: %w", cmd.Type, err)
	}
	return nil
}
