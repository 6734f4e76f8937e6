package browser

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/lectorhq/lector/pkg/provider/speech"
)

// recorder captures outbound frames for inspection.
type recorder struct {
	frames [][]byte
	err    error
}

func (r *recorder) send(_ context.Context, payload []byte) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, payload)
	return nil
}

func (r *recorder) lastCommand(t *testing.T) command {
	t.Helper()
	if len(r.frames) == 0 {
		t.Fatal("no frames sent")
	}
	var cmd command
	if err := json.Unmarshal(r.frames[len(r.frames)-1], &cmd); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return cmd
}

func TestNew_NilSend(t *testing.T) {
	t.Parallel()

	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil send function, got nil")
	}
}

func TestSpeakSendsCommand(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s, err := New(rec.send)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Speak(context.Background(), "Hola mundo", "es"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	cmd := rec.lastCommand(t)
	if cmd.Type != "speak" || cmd.Text != "Hola mundo" || cmd.Lang != "es" {
		t.Errorf("command = %+v", cmd)
	}
	if !s.Speaking() {
		t.Error("Speaking() = false after Speak")
	}
}

func TestSpeak_SendFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{err: errors.New("socket closed")}
	s, err := New(rec.send)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Speak(context.Background(), "x", "es"); err == nil {
		t.Fatal("expected send error, got nil")
	}
	if s.Speaking() {
		t.Error("Speaking() = true after failed Speak")
	}
}

func TestPauseResumeLifecycle(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s, err := New(rec.send)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Pause(); !errors.Is(err, speech.ErrNotSpeaking) {
		t.Errorf("Pause with no utterance: err = %v, want ErrNotSpeaking", err)
	}
	if err := s.Resume(); !errors.Is(err, speech.ErrNotSpeaking) {
		t.Errorf("Resume with no utterance: err = %v, want ErrNotSpeaking", err)
	}

	if err := s.Speak(context.Background(), "Hola", "es"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if err := s.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if !s.Paused() {
		t.Error("Paused() = false after Pause")
	}
	if got := rec.lastCommand(t).Type; got != "pause" {
		t.Errorf("command type = %q, want pause", got)
	}

	if err := s.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if s.Paused() {
		t.Error("Paused() = true after Resume")
	}
	if got := rec.lastCommand(t).Type; got != "resume" {
		t.Errorf("command type = %q, want resume", got)
	}
}

func TestCancelIdempotent(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s, err := New(rec.send)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Cancel with no utterance sends nothing.
	s.Cancel()
	if len(rec.frames) != 0 {
		t.Errorf("cancel without utterance sent %d frames", len(rec.frames))
	}

	if err := s.Speak(context.Background(), "Hola", "es"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	s.Cancel()
	if got := rec.lastCommand(t).Type; got != "cancel" {
		t.Errorf("command type = %q, want cancel", got)
	}
	if s.Speaking() {
		t.Error("Speaking() = true after Cancel")
	}

	// Second cancel is a no-op.
	frames := len(rec.frames)
	s.Cancel()
	if len(rec.frames) != frames {
		t.Error("second Cancel sent another frame")
	}
}

func TestHandleMessage(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s, err := New(rec.send)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Speak(context.Background(), "Hola mundo", "es"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	if err := s.HandleMessage([]byte(`{"type":"boundary","name":"word","charIndex":5}`)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	ev := <-s.Events()
	if ev.Kind != speech.EventBoundary || ev.Name != "word" || ev.CharIndex != 5 {
		t.Errorf("event = %+v", ev)
	}
	if !s.Speaking() {
		t.Error("boundary event must not clear speaking state")
	}

	if err := s.HandleMessage([]byte(`{"type":"end"}`)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	ev = <-s.Events()
	if ev.Kind != speech.EventEnd {
		t.Errorf("event kind = %q, want end", ev.Kind)
	}
	if s.Speaking() {
		t.Error("Speaking() = true after end event")
	}
}

func TestHandleMessage_ErrorAndUnknown(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s, err := New(rec.send)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.HandleMessage([]byte(`{"type":"error","code":"interrupted"}`)); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	ev := <-s.Events()
	if ev.Kind != speech.EventError || ev.Code != "interrupted" {
		t.Errorf("event = %+v", ev)
	}
	if !speech.IsInterruption(ev.Code) {
		t.Errorf("IsInterruption(%q) = false", ev.Code)
	}

	// Unknown frame types are ignored.
	if err := s.HandleMessage([]byte(`{"type":"telemetry"}`)); err != nil {
		t.Fatalf("HandleMessage unknown type: %v", err)
	}
	select {
	case ev := <-s.Events():
		t.Errorf("unexpected event %+v for unknown frame type", ev)
	default:
	}

	if err := s.HandleMessage([]byte(`not-json`)); err == nil {
		t.Fatal("expected decode error, got nil")
	}
}
