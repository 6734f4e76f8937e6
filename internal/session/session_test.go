package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lectorhq/lector/internal/cache"
	"github.com/lectorhq/lector/internal/reader"
	"github.com/lectorhq/lector/internal/reader/speechsync"
	"github.com/lectorhq/lector/pkg/provider/speech"
	speechmock "github.com/lectorhq/lector/pkg/provider/speech/mock"
	"github.com/lectorhq/lector/pkg/provider/vocab"
	vocabmock "github.com/lectorhq/lector/pkg/provider/vocab/mock"
)

// sinkRecorder captures sink calls for inspection.
type sinkRecorder struct {
	mu         sync.Mutex
	highlights [][2]int
	clears     int
	notices    []string
}

func (r *sinkRecorder) HighlightUnit(pageIndex, unitIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.highlights = append(r.highlights, [2]int{pageIndex, unitIndex})
}

func (r *sinkRecorder) ClearHighlight() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *sinkRecorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, msg)
}

type fixture struct {
	session  *Session
	provider *vocabmock.Provider
	synth    *speechmock.Synthesizer
	sink     *sinkRecorder
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	f := &fixture{
		provider: &vocabmock.Provider{},
		synth:    speechmock.New(),
		sink:     &sinkRecorder{},
	}
	if cfg.Provider == nil {
		cfg.Provider = f.provider
	} else {
		f.provider = cfg.Provider.(*vocabmock.Provider)
	}
	cfg.Synth = f.synth
	cfg.Sink = f.sink
	if cfg.SourceLang == "" {
		cfg.SourceLang = "es"
	}
	if cfg.TargetLang == "" {
		cfg.TargetLang = "en"
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.session = s
	return f
}

func twoPageDoc() []*reader.Page {
	return []*reader.Page{
		reader.NewPlainPage(0, "Ayer vi un gato. El gato come pescado.", nil),
		reader.NewPlainPage(1, "Hoy llueve mucho.", nil),
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty config")
	}
}

func TestNavigateClassifiesPage(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.provider.StatusesResult = map[string]vocab.Status{"gato": vocab.StatusLearning}
	f.session.SetPages(twoPageDoc())

	page, err := f.session.Navigate(context.Background(), 0)
	if err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if len(f.provider.StatusesCalls) != 1 {
		t.Fatalf("got %d status lookups, want 1", len(f.provider.StatusesCalls))
	}
	for _, u := range page.Units {
		want := vocab.StatusNew
		if u.Normalized == "gato" {
			want = vocab.StatusLearning
		}
		if u.Status != want {
			t.Errorf("unit %q status = %q, want %q", u.Raw, u.Status, want)
		}
	}

	if _, err := f.session.Navigate(context.Background(), 5); err == nil {
		t.Error("expected error for out-of-range page")
	}
}

func TestClickCapturesSelectionAndTranslates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.provider.TranslateResult = vocab.Translation{
		Translation: "cat",
		Status:      vocab.StatusNew,
	}
	f.session.SetPages(twoPageDoc())
	if _, err := f.session.Navigate(context.Background(), 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	// Unit 5 is the second "gato".
	tr, err := f.session.Click(context.Background(), 5)
	if err != nil {
		t.Fatalf("Click: %v", err)
	}
	if tr.Translation != "cat" {
		t.Errorf("translation = %q", tr.Translation)
	}

	sel, ok := f.session.CurrentSelection()
	if !ok {
		t.Fatal("no selection after click")
	}
	if sel.Word != "gato" || sel.UnitIndex != 5 {
		t.Errorf("selection = %+v", sel)
	}
	if sel.Sentence != "El gato come pescado." {
		t.Errorf("selection sentence = %q", sel.Sentence)
	}

	if len(f.provider.TranslateCalls) != 1 {
		t.Fatalf("got %d translate calls, want 1", len(f.provider.TranslateCalls))
	}
	req := f.provider.TranslateCalls[0].Request
	if req.Word != "gato" || req.Sentence != "El gato come pescado." {
		t.Errorf("translate request = %+v", req)
	}
}

func TestClick_SameLanguageGoesToBackend(t *testing.T) {
	t.Parallel()

	// Same-language documents are the backend's shortcut, not ours: it
	// persists the word and answers with it marked known, and the session
	// mirrors that status on the clicked unit.
	f := newFixture(t, Config{SourceLang: "es", TargetLang: "es"})
	f.provider.TranslateResult = vocab.Translation{
		Translation: "gato",
		Status:      vocab.StatusKnown,
	}
	f.session.SetPages(twoPageDoc())
	if _, err := f.session.Navigate(context.Background(), 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	tr, err := f.session.Click(context.Background(), 5)
	if err != nil {
		t.Fatalf("Click: %v", err)
	}
	if tr.Translation != "gato" || tr.Status != vocab.StatusKnown {
		t.Errorf("translation = %+v, want word itself marked known", tr)
	}

	if len(f.provider.TranslateCalls) != 1 {
		t.Fatalf("got %d translate calls, want 1", len(f.provider.TranslateCalls))
	}
	req := f.provider.TranslateCalls[0].Request
	if req.Word != "gato" || req.SourceLang != "es" || req.TargetLang != "es" {
		t.Errorf("translate request = %+v", req)
	}
	if got := f.session.ActivePage().Units[5].Status; got != vocab.StatusKnown {
		t.Errorf("unit 5 status = %q, want known after same-language click", got)
	}
}

func TestClick_PunctuationUnitIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.session.SetPages([]*reader.Page{
		reader.NewTokenizedPage(0, []string{"El", "gato", "..."}, "El gato ...", nil),
	})
	if _, err := f.session.Navigate(context.Background(), 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	if _, err := f.session.Click(context.Background(), 2); !errors.Is(err, ErrNotWord) {
		t.Fatalf("Click on punctuation: err = %v, want ErrNotWord", err)
	}
	if len(f.provider.TranslateCalls) != 0 {
		t.Errorf("punctuation click hit the backend %d times", len(f.provider.TranslateCalls))
	}
	if _, ok := f.session.CurrentSelection(); ok {
		t.Error("punctuation click captured a selection")
	}
}

func TestClick_SentenceCache(t *testing.T) {
	t.Parallel()

	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	f := newFixture(t, Config{Cache: c})
	f.provider.TranslateResult = vocab.Translation{
		Translation:        "cat",
		TranslatedSentence: "The cat eats fish.",
	}
	f.session.SetPages(twoPageDoc())
	if _, err := f.session.Navigate(context.Background(), 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	// First click populates the cache.
	if _, err := f.session.Click(context.Background(), 5); err != nil {
		t.Fatalf("first Click: %v", err)
	}
	if f.provider.TranslateCalls[0].Request.Sentence == "" {
		t.Error("first click should send the sentence for translation")
	}

	// Second click in the same sentence reuses the cached translation.
	f.provider.TranslateResult = vocab.Translation{Translation: "eats"}
	tr, err := f.session.Click(context.Background(), 6)
	if err != nil {
		t.Fatalf("second Click: %v", err)
	}
	if f.provider.TranslateCalls[1].Request.Sentence != "" {
		t.Error("second click re-sent an already cached sentence")
	}
	if tr.TranslatedSentence != "The cat eats fish." {
		t.Errorf("cached sentence = %q", tr.TranslatedSentence)
	}
}

func TestSetStatus_UsesCapturedSelection(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.session.SetPages(twoPageDoc())
	if _, err := f.session.Navigate(context.Background(), 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	if err := f.session.SetStatus(context.Background(), vocab.StatusKnown); !errors.Is(err, ErrNoSelection) {
		t.Errorf("SetStatus before click: err = %v, want ErrNoSelection", err)
	}

	if _, err := f.session.Click(context.Background(), 5); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if err := f.session.SetStatus(context.Background(), vocab.StatusKnown); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	if len(f.provider.UpdateStatusCalls) != 1 {
		t.Fatalf("got %d update calls, want 1", len(f.provider.UpdateStatusCalls))
	}
	upd := f.provider.UpdateStatusCalls[0]
	if upd.Word != "gato" || upd.Status != vocab.StatusKnown {
		t.Errorf("update = %+v", upd)
	}

	// Exactly that unit's status updated optimistically.
	page := f.session.ActivePage()
	for _, u := range page.Units {
		want := vocab.StatusNew
		if u.Index == 5 {
			want = vocab.StatusKnown
		}
		if u.Status != want {
			t.Errorf("unit %d status = %q, want %q", u.Index, u.Status, want)
		}
	}
}

func TestSetStatus_LastClickWins(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.session.SetPages(twoPageDoc())
	if _, err := f.session.Navigate(context.Background(), 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	// Two clicks before the status action: the later selection is the
	// one the status change targets.
	if _, err := f.session.Click(context.Background(), 1); err != nil {
		t.Fatalf("Click 1: %v", err)
	}
	if _, err := f.session.Click(context.Background(), 5); err != nil {
		t.Fatalf("Click 5: %v", err)
	}

	if err := f.session.SetStatus(context.Background(), vocab.StatusLearning); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	upd := f.provider.UpdateStatusCalls[0]
	if upd.Word != "gato" {
		t.Errorf("update targeted %q, want %q", upd.Word, "gato")
	}

	page := f.session.ActivePage()
	if page.Units[5].Status != vocab.StatusLearning {
		t.Errorf("unit 5 status = %q", page.Units[5].Status)
	}
	if page.Units[1].Status != vocab.StatusNew {
		t.Errorf("unit 1 status = %q, earlier selection must stay untouched", page.Units[1].Status)
	}
}

func TestSetStatus_BackendFailureLeavesUnitUntouched(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.provider.UpdateStatusError = errors.New("backend down")
	f.session.SetPages(twoPageDoc())
	if _, err := f.session.Navigate(context.Background(), 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if _, err := f.session.Click(context.Background(), 5); err != nil {
		t.Fatalf("Click: %v", err)
	}

	if err := f.session.SetStatus(context.Background(), vocab.StatusKnown); err == nil {
		t.Fatal("expected error from backend failure")
	}
	if got := f.session.ActivePage().Units[5].Status; got != vocab.StatusNew {
		t.Errorf("unit 5 status = %q, want unchanged", got)
	}
}

func TestPlayBoundaryHighlightStop(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.session.SetPages([]*reader.Page{reader.NewPlainPage(0, "Hola mundo", nil)})
	if _, err := f.session.Navigate(context.Background(), 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}

	if err := f.session.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := f.session.SpeechState(); got != speechsync.StateSpeaking {
		t.Fatalf("state = %q, want speaking", got)
	}

	f.synth.Emit(speech.Event{Kind: speech.EventBoundary, Name: "word", CharIndex: 6})
	waitFor(t, func() bool {
		idx, ok := f.session.HighlightedUnit()
		return ok && idx == 1
	})

	f.sink.mu.Lock()
	if len(f.sink.highlights) != 1 || f.sink.highlights[0] != [2]int{0, 1} {
		t.Errorf("sink highlights = %v", f.sink.highlights)
	}
	f.sink.mu.Unlock()

	f.session.Stop()
	if _, ok := f.session.HighlightedUnit(); ok {
		t.Error("highlight survived Stop")
	}
	if got := f.session.SpeechState(); got != speechsync.StateIdle {
		t.Errorf("state after stop = %q, want idle", got)
	}
}

func TestNavigateStopsPlayback(t *testing.T) {
	t.Parallel()

	f := newFixture(t, Config{})
	f.session.SetPages(twoPageDoc())
	if _, err := f.session.Navigate(context.Background(), 0); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if err := f.session.Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}

	if _, err := f.session.Navigate(context.Background(), 1); err != nil {
		t.Fatalf("Navigate: %v", err)
	}
	if f.synth.CallCountCancel == 0 {
		t.Error("navigation did not cancel synthesis")
	}
	if _, ok := f.session.HighlightedUnit(); ok {
		t.Error("highlight survived navigation")
	}
	if got := f.session.SpeechState(); got != speechsync.StateIdle {
		t.Errorf("state after navigation = %q, want idle", got)
	}
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}
