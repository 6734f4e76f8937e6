// Package gateway binds one websocket connection to one reading session.
//
// All reading logic lives in internal/reader and internal/session; the
// gateway only decodes command frames, forwards them to the session, and
// encodes the session's effects back to the client. The same socket carries
// the speech bridge: synthesis commands travel out as "speech" events and
// the browser engine's boundary/end/error frames come back as "speech"
// commands.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lectorhq/lector/internal/cache"
	"github.com/lectorhq/lector/internal/observe"
	"github.com/lectorhq/lector/internal/reader"
	"github.com/lectorhq/lector/internal/reader/speechsync"
	"github.com/lectorhq/lector/internal/session"
	"github.com/lectorhq/lector/pkg/provider/speech/browser"
	"github.com/lectorhq/lector/pkg/provider/tokenize"
	"github.com/lectorhq/lector/pkg/provider/vocab"
)

// Config configures a [Handler].
type Config struct {
	// Provider is the vocabulary backend. Must not be nil.
	Provider vocab.Provider

	// Tokenizer segments pasted text for scripts without whitespace word
	// boundaries. May be nil, in which case tokenized pages degrade to
	// whitespace segmentation.
	Tokenizer tokenize.Tokenizer

	// Cache holds sentence translations across clicks. May be nil.
	Cache *cache.SentenceCache

	// Metrics receives gateway and synchronizer instrumentation. May be nil.
	Metrics *observe.Metrics

	// SourceLang and TargetLang are the defaults applied when an
	// open_document command does not name its own languages.
	SourceLang string
	TargetLang string

	// Logger may be nil, in which case the default logger is used.
	Logger *slog.Logger
}

// Handler upgrades HTTP requests to websocket reading sessions.
type Handler struct {
	provider   vocab.Provider
	tokenizer  tokenize.Tokenizer
	cache      *cache.SentenceCache
	metrics    *observe.Metrics
	sourceLang string
	targetLang string
	log        *slog.Logger
}

// NewHandler creates a [Handler] from cfg.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("gateway: provider must be set")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		provider:   cfg.Provider,
		tokenizer:  cfg.Tokenizer,
		cache:      cfg.Cache,
		metrics:    cfg.Metrics,
		sourceLang: cfg.SourceLang,
		targetLang: cfg.TargetLang,
		log:        logger,
	}, nil
}

// Register adds the websocket route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", h.HandleWS)
}

// HandleWS upgrades the request and serves the connection until the client
// disconnects or the request context ends.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn("websocket accept failed", "error", err)
		return
	}

	if h.metrics != nil {
		h.metrics.ActiveSessions.Add(r.Context(), 1)
		defer h.metrics.ActiveSessions.Add(context.Background(), -1)
	}

	c := &client{h: h, conn: conn}
	c.run(r.Context())
	conn.Close(websocket.StatusNormalClosure, "session closed")
}

// client is the per-connection state. The read loop is the only goroutine
// dispatching commands; outbound writes are serialized by writeMu because
// session events arrive from the synchronizer goroutine.
type client struct {
	h    *Handler
	conn *websocket.Conn

	writeMu sync.Mutex
	ctx     context.Context

	synth      *browser.Synthesizer
	sess       *session.Session
	sessCancel context.CancelFunc
}

func (c *client) run(ctx context.Context) {
	c.ctx = ctx

	synth, err := browser.New(c.sendSpeech)
	if err != nil {
		c.h.log.Error("speech bridge setup failed", "error", err)
		return
	}
	c.synth = synth
	defer synth.Close()
	defer func() {
		if c.sessCancel != nil {
			c.sessCancel()
		}
	}()

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.h.log.Debug("connection closed", "error", err)
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.sendError("malformed command frame")
			continue
		}
		c.dispatch(ctx, cmd)
	}
}

func (c *client) dispatch(ctx context.Context, cmd command) {
	switch cmd.Type {
	case cmdOpenDocument:
		c.openDocument(ctx, cmd)

	case cmdNavigate:
		c.navigate(ctx, cmd.Page)

	case cmdClick:
		c.click(ctx, cmd.Unit)

	case cmdSetStatus:
		c.setStatus(ctx, cmd.Status)

	case cmdPlay:
		sess, ok := c.session()
		if !ok {
			return
		}
		if err := sess.Play(ctx); err != nil {
			c.sendError(err.Error())
		}

	case cmdPause:
		sess, ok := c.session()
		if !ok {
			return
		}
		if err := sess.Pause(); err != nil {
			c.h.log.Debug("pause ignored", "error", err)
		}

	case cmdStop:
		sess, ok := c.session()
		if !ok {
			return
		}
		sess.Stop()

	case cmdLanguages:
		c.languages(ctx)

	case cmdVocabulary:
		c.vocabulary(ctx, cmd)

	case cmdEditWord:
		c.editWord(ctx, cmd)

	case cmdDeleteWord:
		c.deleteWord(ctx, cmd)

	case cmdSpeech:
		if err := c.synth.HandleMessage(cmd.Payload); err != nil {
			c.h.log.Warn("bad speech engine frame", "error", err)
		}

	default:
		c.sendError(fmt.Sprintf("unknown command %q", cmd.Type))
	}
}

// openDocument builds the page sequence and activates the first page. The
// session is created on first open; its languages are fixed for the rest of
// the connection.
func (c *client) openDocument(ctx context.Context, cmd command) {
	pages := make([]*reader.Page, 0, len(cmd.Pages))
	for i, p := range cmd.Pages {
		pages = append(pages, c.buildPage(ctx, i, p))
	}

	if c.sess == nil {
		sourceLang := cmd.SourceLang
		if sourceLang == "" {
			sourceLang = c.h.sourceLang
		}
		targetLang := cmd.TargetLang
		if targetLang == "" {
			targetLang = c.h.targetLang
		}

		sessCtx, cancel := context.WithCancel(c.ctx)
		var recorder speechsync.Recorder
		if c.h.metrics != nil {
			recorder = metricsRecorder{m: c.h.metrics}
		}
		sess, err := session.New(sessCtx, session.Config{
			Provider:   c.h.provider,
			Synth:      c.synth,
			Sink:       c,
			Cache:      c.h.cache,
			Recorder:   recorder,
			SourceLang: sourceLang,
			TargetLang: targetLang,
			Logger:     c.h.log,
		})
		if err != nil {
			cancel()
			c.sendError(err.Error())
			return
		}
		c.sess = sess
		c.sessCancel = cancel
	} else if cmd.SourceLang != "" || cmd.TargetLang != "" {
		c.h.log.Warn("language override ignored on reopened session")
	}

	c.sess.SetPages(pages)
	if len(pages) > 0 {
		c.navigate(ctx, 0)
	}
}

// buildPage segments one page payload. Tokenization failures degrade to
// whitespace segmentation rather than dropping the page.
func (c *client) buildPage(ctx context.Context, index int, p pagePayload) *reader.Page {
	if p.Tokenized && c.h.tokenizer != nil {
		page, err := reader.TokenizePage(ctx, c.h.tokenizer, index, p.Text, p.Image)
		if err == nil {
			return page
		}
		c.h.log.Warn("tokenization failed, rendering as plain text",
			"page", index, "error", err)
	}
	return reader.NewPlainPage(index, p.Text, p.Image)
}

func (c *client) navigate(ctx context.Context, pageIndex int) {
	sess, ok := c.session()
	if !ok {
		return
	}

	start := time.Now()
	page, err := sess.Navigate(ctx, pageIndex)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if c.h.metrics != nil {
		c.h.metrics.ClassifyDuration.Record(ctx, time.Since(start).Seconds())
	}
	c.sendPage(page, sess.PageCount())
}

func (c *client) click(ctx context.Context, unitIndex int) {
	sess, ok := c.session()
	if !ok {
		return
	}

	start := time.Now()
	tr, err := sess.Click(ctx, unitIndex)
	if errors.Is(err, session.ErrNotWord) {
		// Punctuation clicks never reach the backend and produce no event.
		return
	}
	c.recordVocab(ctx, "translate", err)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if c.h.metrics != nil {
		c.h.metrics.TranslateDuration.Record(ctx, time.Since(start).Seconds())
	}

	word := ""
	if sel, ok := sess.CurrentSelection(); ok {
		word = sel.Word
	}
	c.writeEvent(translationEvent{
		Type:               "translation",
		Word:               word,
		Translation:        tr.Translation,
		Status:             string(tr.Status),
		SourceSentence:     tr.SourceSentence,
		TranslatedSentence: tr.TranslatedSentence,
	})
}

func (c *client) setStatus(ctx context.Context, status string) {
	sess, ok := c.session()
	if !ok {
		return
	}

	st := vocab.Status(status)
	err := sess.SetStatus(ctx, st)
	c.recordVocab(ctx, "update_status", err)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if c.h.metrics != nil {
		c.h.metrics.RecordStatusChange(ctx, status)
	}
	c.writeEvent(ackEvent{Type: "ok", Op: cmdSetStatus})
}

// languages works before a document is open so the client can populate its
// language picker.
func (c *client) languages(ctx context.Context) {
	langs, err := c.h.provider.Languages(ctx)
	c.recordVocab(ctx, "languages", err)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	out := make([]languageJSON, 0, len(langs))
	for _, l := range langs {
		out = append(out, languageJSON{Code: l.Code, Name: l.Name})
	}
	c.writeEvent(languagesEvent{Type: "languages", Languages: out})
}

func (c *client) vocabulary(ctx context.Context, cmd command) {
	sess, ok := c.session()
	if !ok {
		return
	}

	entries, err := sess.Vocabulary(ctx, vocab.VocabularyFilter{
		Status:     vocab.Status(cmd.Status),
		TargetLang: cmd.Lang,
	})
	c.recordVocab(ctx, "vocabulary", err)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON{
			Word:        e.Word,
			Translation: e.Translation,
			SourceLang:  e.SourceLang,
			TargetLang:  e.TargetLang,
			Status:      string(e.Status),
		})
	}
	c.writeEvent(vocabularyEvent{Type: "vocabulary", Entries: out})
}

func (c *client) editWord(ctx context.Context, cmd command) {
	sess, ok := c.session()
	if !ok {
		return
	}

	err := sess.EditTranslation(ctx, vocab.Edit{
		Key: vocab.Key{
			Word:       cmd.Word,
			SourceLang: cmd.SourceLang,
			TargetLang: cmd.TargetLang,
		},
		Translation: cmd.Translation,
	})
	c.recordVocab(ctx, "edit_word", err)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.writeEvent(ackEvent{Type: "ok", Op: cmdEditWord})
}

func (c *client) deleteWord(ctx context.Context, cmd command) {
	sess, ok := c.session()
	if !ok {
		return
	}

	err := sess.DeleteWord(ctx, vocab.Key{
		Word:       cmd.Word,
		SourceLang: cmd.SourceLang,
		TargetLang: cmd.TargetLang,
	})
	c.recordVocab(ctx, "delete_word", err)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.writeEvent(ackEvent{Type: "ok", Op: cmdDeleteWord})
}

// recordVocab counts one vocabulary backend call by operation and outcome.
func (c *client) recordVocab(ctx context.Context, op string, err error) {
	if c.h.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.h.metrics.RecordVocabRequest(ctx, op, status)
}

// session returns the open session, reporting an error to the client when
// no document has been opened yet.
func (c *client) session() (*session.Session, bool) {
	if c.sess == nil {
		c.sendError("no document open")
		return nil, false
	}
	return c.sess, true
}

// ─── Outbound events ─────────────────────────────────────────────────────────

func (c *client) sendPage(page *reader.Page, pageCount int) {
	fragments := make([]fragmentJSON, 0, len(page.Fragments))
	for _, f := range page.Fragments {
		fragments = append(fragments, fragmentJSON{Text: f.Text, Unit: f.UnitIndex})
	}
	units := make([]unitJSON, 0, len(page.Units))
	for _, u := range page.Units {
		units = append(units, unitJSON{Index: u.Index, Raw: u.Raw, Status: string(u.Status)})
	}
	c.writeEvent(pageEvent{
		Type:      "page",
		Index:     page.Index,
		PageCount: pageCount,
		Fragments: fragments,
		Units:     units,
		Image:     page.ImageData,
	})
}

// sendSpeech relays a synthesis command from the session's synthesizer to
// the browser engine on the other end of the socket.
func (c *client) sendSpeech(ctx context.Context, payload []byte) error {
	return c.write(ctx, speechEvent{Type: "speech", Payload: payload})
}

func (c *client) sendError(message string) {
	c.writeEvent(errorEvent{Type: "error", Message: message})
}

// HighlightUnit implements [session.EventSink].
func (c *client) HighlightUnit(pageIndex, unitIndex int) {
	if c.h.metrics != nil {
		c.h.metrics.HighlightTransitions.Add(c.ctx, 1)
	}
	c.writeEvent(highlightEvent{Type: "highlight", Page: pageIndex, Unit: unitIndex})
}

// ClearHighlight implements [session.EventSink].
func (c *client) ClearHighlight() {
	c.writeEvent(clearHighlightEvent{Type: "clear_highlight"})
}

// Notify implements [session.EventSink].
func (c *client) Notify(message string) {
	c.writeEvent(toastEvent{Type: "toast", Message: message})
}

func (c *client) writeEvent(v any) {
	if err := c.write(c.ctx, v); err != nil && c.ctx.Err() == nil {
		c.h.log.Debug("event write failed", "error", err)
	}
}

func (c *client) write(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("gateway: marshal event: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// metricsRecorder forwards synchronizer signals to the OTel instruments.
type metricsRecorder struct {
	m *observe.Metrics
}

func (r metricsRecorder) BoundaryEvent(resolved bool) {
	r.m.RecordBoundaryEvent(context.Background(), resolved)
}

func (r metricsRecorder) DriftRecovered() {
	r.m.DriftRecoveries.Add(context.Background(), 1)
}
