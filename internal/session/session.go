// Package session owns the per-reader mutable state of an open document:
// the active page, the single highlight, and the selection captured on word
// click. All mutation is serialized through one mutex, which is what keeps
// clicks, status edits, and speech boundary events consistent even though
// they arrive from independent interleaved streams.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lectorhq/lector/internal/cache"
	"github.com/lectorhq/lector/internal/reader"
	"github.com/lectorhq/lector/internal/reader/speechsync"
	"github.com/lectorhq/lector/pkg/provider/speech"
	"github.com/lectorhq/lector/pkg/provider/vocab"
)

// noHighlight marks the absence of a highlighted unit.
const noHighlight = -1

// ErrNoSelection is returned by SetStatus when no word has been clicked yet.
var ErrNoSelection = errors.New("session: no word selected")

// ErrNoPage is returned by operations that need an active page.
var ErrNoPage = errors.New("session: no active page")

// ErrNotWord is returned by Click for a unit with no word content left
// after normalization, such as a punctuation-only token. Such clicks carry
// no lookup key and are dropped without reaching the backend.
var ErrNotWord = errors.New("session: clicked unit is not a word")

// EventSink receives the session's asynchronous UI effects. Implementations
// forward them to the connected client; they must not block.
type EventSink interface {
	// HighlightUnit moves the visual highlight to one unit of the active
	// page. At most one unit is highlighted at a time; the sink clears
	// any previous highlight as part of the transition.
	HighlightUnit(pageIndex, unitIndex int)

	// ClearHighlight removes the highlight entirely.
	ClearHighlight()

	// Notify shows one transient, non-fatal message to the user.
	Notify(message string)
}

// Selection is the word captured on click. It is captured by value: later
// clicks replace it, but an in-flight status change keeps targeting the
// selection that was current when the user acted.
type Selection struct {
	Word       string
	SourceLang string
	PageIndex  int
	UnitIndex  int
	Sentence   string
}

// Config configures a [Session].
type Config struct {
	// Provider is the vocabulary backend. Must not be nil.
	Provider vocab.Provider

	// Synth drives speech playback. Must not be nil.
	Synth speech.Synthesizer

	// Sink receives asynchronous UI effects. Must not be nil.
	Sink EventSink

	// Cache holds sentence translations across clicks. May be nil.
	Cache *cache.SentenceCache

	// Recorder receives synchronizer observability signals. May be nil.
	Recorder speechsync.Recorder

	// SourceLang is the document language (ISO 639-1).
	SourceLang string

	// TargetLang is the translation target language.
	TargetLang string

	// Logger may be nil, in which case the default logger is used.
	Logger *slog.Logger
}

// Session is one reader's open document.
type Session struct {
	provider   vocab.Provider
	classifier *reader.Classifier
	sync       *speechsync.Synchronizer
	sink       EventSink
	cache      *cache.SentenceCache
	log        *slog.Logger

	sourceLang string
	targetLang string

	mu          sync.Mutex
	pages       []*reader.Page
	active      int
	highlighted int
	selection   *Selection
}

// New creates a Session and starts its speech event pump. The pump stops
// when ctx is cancelled or the synthesizer's event stream closes.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Provider == nil || cfg.Synth == nil || cfg.Sink == nil {
		return nil, errors.New("session: provider, synth and sink must be set")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		provider:    cfg.Provider,
		classifier:  reader.NewClassifier(cfg.Provider, logger),
		sink:        cfg.Sink,
		cache:       cfg.Cache,
		log:         logger,
		sourceLang:  cfg.SourceLang,
		targetLang:  cfg.TargetLang,
		active:      -1,
		highlighted: noHighlight,
	}

	sc, err := speechsync.New(cfg.Synth, speechsync.Hooks{
		Highlight:      s.setHighlight,
		ClearHighlight: s.clearHighlight,
		Notify:         cfg.Sink.Notify,
	}, cfg.Recorder, logger)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.sync = sc

	go sc.Run(ctx)
	return s, nil
}

// SetPages replaces the document. Playback stops and all per-page state is
// discarded.
func (s *Session) SetPages(pages []*reader.Page) {
	s.sync.Stop()

	s.mu.Lock()
	s.pages = pages
	s.active = -1
	s.selection = nil
	s.mu.Unlock()
}

// PageCount returns the number of pages in the open document.
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Navigate activates the page at pageIndex. Any in-flight synthesis is
// cancelled and the highlight cleared before the new page's classification
// runs, so no highlight leaks across pages. Classification reapplies from
// scratch on every activation.
func (s *Session) Navigate(ctx context.Context, pageIndex int) (*reader.Page, error) {
	// Stop before touching page state so a late boundary event cannot
	// highlight into the new page.
	s.sync.Stop()

	s.mu.Lock()
	if pageIndex < 0 || pageIndex >= len(s.pages) {
		s.mu.Unlock()
		return nil, fmt.Errorf("session: page %d out of range [0,%d)", pageIndex, len(s.pages))
	}
	page := s.pages[pageIndex]
	s.active = pageIndex
	s.mu.Unlock()

	s.classifier.Classify(ctx, page, s.sourceLang, s.targetLang)
	return page, nil
}

// ActivePage returns the currently active page, or nil before the first
// Navigate.
func (s *Session) ActivePage() *reader.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active < 0 {
		return nil
	}
	return s.pages[s.active]
}

// Click captures the selection for the unit at unitIndex, resolves its
// enclosing sentence, and requests a contextual translation. The captured
// selection stays the target of the next status change even if playback or
// further clicks interleave before it completes.
func (s *Session) Click(ctx context.Context, unitIndex int) (vocab.Translation, error) {
	s.mu.Lock()
	if s.active < 0 {
		s.mu.Unlock()
		return vocab.Translation{}, ErrNoPage
	}
	page := s.pages[s.active]
	unit, ok := page.Unit(unitIndex)
	if !ok {
		s.mu.Unlock()
		return vocab.Translation{}, fmt.Errorf("session: unit %d out of range", unitIndex)
	}
	if unit.Normalized == "" {
		s.mu.Unlock()
		return vocab.Translation{}, ErrNotWord
	}
	sentence := reader.ResolveSentence(page.Fragments, unitIndex)
	sel := Selection{
		Word:       unit.Normalized,
		SourceLang: s.sourceLang,
		PageIndex:  page.Index,
		UnitIndex:  unitIndex,
		Sentence:   sentence,
	}
	s.selection = &sel
	s.mu.Unlock()

	tr, err := s.translate(ctx, sel)
	if err != nil {
		return vocab.Translation{}, err
	}
	// The backend's answer carries the word's (possibly updated) learning
	// status; mirror it on the clicked unit. Same-language documents rely
	// on this: the backend answers with the word itself marked known and
	// persists it, so the unit flips without a separate status action.
	s.applyUnitStatus(sel, tr.Status)
	return tr, nil
}

// translate fetches the word translation with sentence context, consulting
// the sentence cache first.
func (s *Session) translate(ctx context.Context, sel Selection) (vocab.Translation, error) {
	cachedSentence, cached := s.cachedSentence(ctx, sel.Sentence)

	req := vocab.TranslateRequest{
		Word:       sel.Word,
		SourceLang: s.sourceLang,
		TargetLang: s.targetLang,
	}
	if !cached {
		req.Sentence = sel.Sentence
	}

	tr, err := s.provider.Translate(ctx, req)
	if err != nil {
		return vocab.Translation{}, fmt.Errorf("session: translate %q: %w", sel.Word, err)
	}

	if cached {
		tr.SourceSentence = sel.Sentence
		tr.TranslatedSentence = cachedSentence
	} else if tr.TranslatedSentence != "" && s.cache != nil {
		if err := s.cache.Put(ctx, sel.Sentence, s.sourceLang, s.targetLang, tr.TranslatedSentence); err != nil {
			s.log.Warn("sentence cache store failed", "error", err)
		}
	}
	return tr, nil
}

func (s *Session) cachedSentence(ctx context.Context, sentence string) (string, bool) {
	if s.cache == nil || sentence == "" {
		return "", false
	}
	translation, ok, err := s.cache.Get(ctx, sentence, s.sourceLang, s.targetLang)
	if err != nil {
		s.log.Warn("sentence cache lookup failed", "error", err)
		return "", false
	}
	return translation, ok
}

// SetStatus applies a learning-status change to the selection captured at
// click time. On backend success the unit's local status updates
// optimistically, located by the captured index. Returns ErrNoSelection when
// nothing has been clicked.
func (s *Session) SetStatus(ctx context.Context, status vocab.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("session: invalid status %q", status)
	}

	s.mu.Lock()
	if s.selection == nil {
		s.mu.Unlock()
		return ErrNoSelection
	}
	sel := *s.selection
	s.mu.Unlock()

	err := s.provider.UpdateStatus(ctx, vocab.StatusUpdate{
		Word:       sel.Word,
		SourceLang: sel.SourceLang,
		TargetLang: s.targetLang,
		Status:     status,
	})
	if err != nil {
		return fmt.Errorf("session: update status for %q: %w", sel.Word, err)
	}

	s.applyUnitStatus(sel, status)
	return nil
}

// applyUnitStatus mirrors a backend-confirmed status on the unit the
// selection captured. Statuses the backend left unset are ignored; a page no
// longer present (document replaced mid-flight) is skipped silently.
func (s *Session) applyUnitStatus(sel Selection, status vocab.Status) {
	if !status.IsValid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel.PageIndex < 0 || sel.PageIndex >= len(s.pages) {
		return
	}
	page := s.pages[sel.PageIndex]
	if sel.UnitIndex >= 0 && sel.UnitIndex < len(page.Units) {
		page.Units[sel.UnitIndex].Status = status
	}
}

// CurrentSelection returns the last captured selection, or false when none
// exists.
func (s *Session) CurrentSelection() (Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return Selection{}, false
	}
	return *s.selection, true
}

// Languages lists the translation target languages the backend supports.
func (s *Session) Languages(ctx context.Context) ([]vocab.Language, error) {
	return s.provider.Languages(ctx)
}

// Vocabulary lists stored vocabulary entries matching f.
func (s *Session) Vocabulary(ctx context.Context, f vocab.VocabularyFilter) ([]vocab.Entry, error) {
	return s.provider.Vocabulary(ctx, f)
}

// EditTranslation replaces the stored translation for a vocabulary entry.
func (s *Session) EditTranslation(ctx context.Context, e vocab.Edit) error {
	return s.provider.EditTranslation(ctx, e)
}

// DeleteWord removes a vocabulary entry from the backend.
func (s *Session) DeleteWord(ctx context.Context, k vocab.Key) error {
	return s.provider.DeleteWord(ctx, k)
}

// Play starts or resumes reading the active page aloud.
func (s *Session) Play(ctx context.Context) error {
	s.mu.Lock()
	if s.active < 0 {
		s.mu.Unlock()
		return ErrNoPage
	}
	page := s.pages[s.active]
	s.mu.Unlock()

	return s.sync.Play(ctx, page.Units, page.FullText, s.sourceLang)
}

// Pause suspends reading aloud.
func (s *Session) Pause() error {
	return s.sync.Pause()
}

// Stop cancels reading aloud and clears the highlight synchronously.
func (s *Session) Stop() {
	s.sync.Stop()
}

// SpeechState returns the playback state of the session's synchronizer.
func (s *Session) SpeechState() speechsync.State {
	return s.sync.State()
}

// HighlightedUnit returns the index of the highlighted unit on the active
// page, or false when nothing is highlighted.
func (s *Session) HighlightedUnit() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.highlighted == noHighlight {
		return 0, false
	}
	return s.highlighted, true
}

// setHighlight is the synchronizer highlight hook.
func (s *Session) setHighlight(unitIndex int) {
	s.mu.Lock()
	if s.active < 0 {
		s.mu.Unlock()
		return
	}
	pageIndex := s.pages[s.active].Index
	s.highlighted = unitIndex
	s.mu.Unlock()

	s.sink.HighlightUnit(pageIndex, unitIndex)
}

// clearHighlight is the synchronizer idle hook.
func (s *Session) clearHighlight() {
	s.mu.Lock()
	s.highlighted = noHighlight
	s.mu.Unlock()

	s.sink.ClearHighlight()
}
