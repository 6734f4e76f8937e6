// Package rest provides a vocabulary backend client that talks to the Lector
// companion backend over its JSON/HTTP API. It implements the vocab.Provider
// interface.
//
// Typical usage:
//
//	c, err := rest.New("http://localhost:5000",
//	    rest.WithTimeout(10*time.Second),
//	)
//	statuses, err := c.Statuses(ctx, vocab.StatusRequest{...})
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lectorhq/lector/pkg/provider/vocab"
)

// Compile-time interface assertion.
var _ vocab.Provider = (*Client)(nil)

const (
	defaultTimeout = 15 * time.Second

	statusEndpoint     = "/get_vocabulary_status"
	translateEndpoint  = "/translate"
	updateEndpoint     = "/update_word_status"
	languagesEndpoint  = "/get_supported_languages"
	vocabularyEndpoint = "/get_vocabulary"
	editEndpoint       = "/edit_word"
	deleteEndpoint     = "/delete_word"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout. Defaults to 15 s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely. Useful for
// injecting transport middleware or test doubles.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client implements vocab.Provider against the backend's HTTP API.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client targeting the backend at baseURL
// (e.g. "http://localhost:5000"). baseURL must be non-empty.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("vocabrest: baseURL must not be empty")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ---- wire types ----

// statusRequest is the JSON body sent to POST /get_vocabulary_status.
type statusRequest struct {
	Words      []string `json:"words"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
}

// translateRequest is the JSON body sent to POST /translate.
type translateRequest struct {
	Word       string `json:"word"`
	Sentence   string `json:"sentence,omitempty"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// translateResponse is the JSON body returned by POST /translate.
type translateResponse struct {
	Translation        string `json:"translation"`
	Status             string `json:"status"`
	SourceSentence     string `json:"source_sentence,omitempty"`
	TranslatedSentence string `json:"translated_sentence,omitempty"`
	Error              string `json:"error,omitempty"`
}

// updateRequest is the JSON body sent to POST /update_word_status.
type updateRequest struct {
	Word       string `json:"word"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Status     string `json:"status"`
}

// successResponse is the JSON body returned by mutation endpoints.
type successResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// languageEntry is one element of the GET /get_supported_languages response.
type languageEntry struct {
	Language string `json:"language"`
	Name     string `json:"name,omitempty"`
}

// vocabularyEntry is one element of the GET /get_vocabulary response.
type vocabularyEntry struct {
	Word        string `json:"word_text"`
	Translation string `json:"translation"`
	SourceLang  string `json:"source_language"`
	TargetLang  string `json:"target_language"`
	Status      string `json:"learning_status"`
}

// editRequest is the JSON body sent to POST /edit_word.
type editRequest struct {
	Word        string `json:"word"`
	SourceLang  string `json:"source_lang"`
	TargetLang  string `json:"target_lang"`
	Translation string `json:"translation"`
}

// deleteRequest is the JSON body sent to POST /delete_word.
type deleteRequest struct {
	Word       string `json:"word"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// ---- Provider implementation ----

// Statuses implements [vocab.Provider].
func (c *Client) Statuses(ctx context.Context, req vocab.StatusRequest) (map[string]vocab.Status, error) {
	body := statusRequest{
		Words:      req.Words,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
	}

	var raw map[string]string
	if err := c.postJSON(ctx, statusEndpoint, body, &raw); err != nil {
		return nil, err
	}

	statuses := make(map[string]vocab.Status, len(raw))
	for word, s := range raw {
		st := vocab.Status(s)
		if !st.IsValid() {
			// Unknown statuses degrade to "new" rather than failing the page.
			st = vocab.StatusNew
		}
		statuses[word] = st
	}
	return statuses, nil
}

// Translate implements [vocab.Provider]. A backend-reported error (the
// {"error": ...} shape) is returned as a Go error; the word-level fields are
// mapped onto a [vocab.Translation] otherwise.
func (c *Client) Translate(ctx context.Context, req vocab.TranslateRequest) (vocab.Translation, error) {
	body := translateRequest{
		Word:       req.Word,
		Sentence:   req.Sentence,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
	}

	var resp translateResponse
	if err := c.postJSON(ctx, translateEndpoint, body, &resp); err != nil {
		return vocab.Translation{}, err
	}
	if resp.Error != "" {
		return vocab.Translation{}, fmt.Errorf("vocabrest: translate %q: %s", req.Word, resp.Error)
	}

	status := vocab.Status(resp.Status)
	if !status.IsValid() {
		status = vocab.StatusNew
	}
	return vocab.Translation{
		Translation:        resp.Translation,
		Status:             status,
		SourceSentence:     resp.SourceSentence,
		TranslatedSentence: resp.TranslatedSentence,
	}, nil
}

// UpdateStatus implements [vocab.Provider].
func (c *Client) UpdateStatus(ctx context.Context, upd vocab.StatusUpdate) error {
	body := updateRequest{
		Word:       upd.Word,
		SourceLang: upd.SourceLang,
		TargetLang: upd.TargetLang,
		Status:     string(upd.Status),
	}

	var resp successResponse
	if err := c.postJSON(ctx, updateEndpoint, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("vocabrest: update status for %q rejected: %s", upd.Word, orUnknown(resp.Error))
	}
	return nil
}

// Languages implements [vocab.Provider].
func (c *Client) Languages(ctx context.Context) ([]vocab.Language, error) {
	var raw []languageEntry
	if err := c.getJSON(ctx, languagesEndpoint, nil, &raw); err != nil {
		return nil, err
	}

	langs := make([]vocab.Language, 0, len(raw))
	for _, e := range raw {
		if e.Language == "" {
			continue
		}
		langs = append(langs, vocab.Language{Code: e.Language, Name: e.Name})
	}
	return langs, nil
}

// Vocabulary implements [vocab.Provider].
func (c *Client) Vocabulary(ctx context.Context, f vocab.VocabularyFilter) ([]vocab.Entry, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.TargetLang != "" {
		q.Set("lang", f.TargetLang)
	}

	var raw []vocabularyEntry
	if err := c.getJSON(ctx, vocabularyEndpoint, q, &raw); err != nil {
		return nil, err
	}

	entries := make([]vocab.Entry, 0, len(raw))
	for _, e := range raw {
		st := vocab.Status(e.Status)
		if !st.IsValid() {
			st = vocab.StatusNew
		}
		entries = append(entries, vocab.Entry{
			Word:        e.Word,
			Translation: e.Translation,
			SourceLang:  e.SourceLang,
			TargetLang:  e.TargetLang,
			Status:      st,
		})
	}
	return entries, nil
}

// EditTranslation implements [vocab.Provider].
func (c *Client) EditTranslation(ctx context.Context, e vocab.Edit) error {
	body := editRequest{
		Word:        e.Word,
		SourceLang:  e.SourceLang,
		TargetLang:  e.TargetLang,
		Translation: e.Translation,
	}

	var resp successResponse
	if err := c.postJSON(ctx, editEndpoint, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("vocabrest: edit %q rejected: %s", e.Word, orUnknown(resp.Error))
	}
	return nil
}

// DeleteWord implements [vocab.Provider].
func (c *Client) DeleteWord(ctx context.Context, k vocab.Key) error {
	body := deleteRequest{
		Word:       k.Word,
		SourceLang: k.SourceLang,
		TargetLang: k.TargetLang,
	}

	var resp successResponse
	if err := c.postJSON(ctx, deleteEndpoint, body, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("vocabrest: delete %q rejected: %s", k.Word, orUnknown(resp.Error))
	}
	return nil
}

// ---- helpers ----

// postJSON performs a POST with a JSON body and decodes the JSON response
// into out.
func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("vocabrest: marshal request for %s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("vocabrest: create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vocabrest: POST %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vocabrest: POST %s returned status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vocabrest: decode %s response: %w", endpoint, err)
	}
	return nil
}

// getJSON performs a GET with optional query parameters and decodes the JSON
// response into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, out any) error {
	reqURL := c.baseURL + endpoint
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("vocabrest: create request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vocabrest: GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("vocabrest: GET %s returned status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("vocabrest: decode %s response: %w", endpoint, err)
	}
	return nil
}

// orUnknown substitutes a placeholder for empty backend error strings.
func orUnknown(s string) string {
	if s == "" {
		return "unknown error"
	}
	return s
}
