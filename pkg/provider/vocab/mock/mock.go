// Package mock provides an in-memory mock implementation of [vocab.Provider]
// for use in unit tests.
//
// The mock records every method call and allows the test to configure return
// values via exported fields. It is safe for concurrent use.
//
// Example:
//
//	p := &mock.Provider{
//	    StatusesResult: map[string]vocab.Status{"gato": vocab.StatusLearning},
//	}
//	statuses, err := p.Statuses(ctx, vocab.StatusRequest{Words: []string{"gato"}})
package mock

import (
	"context"
	"sync"

	"github.com/lectorhq/lector/pkg/provider/vocab"
)

// Compile-time interface assertion.
var _ vocab.Provider = (*Provider)(nil)

// TranslateCall records the arguments of a single [Provider.Translate] call.
type TranslateCall struct {
	// Request is the translate request passed to Translate.
	Request vocab.TranslateRequest
}

// Provider is a mock implementation of [vocab.Provider].
// All exported *Result and *Error fields control return values.
// All exported *Calls fields accumulate invocation records.
type Provider struct {
	mu sync.Mutex

	// StatusesResult is returned by [Provider.Statuses] (may be nil).
	StatusesResult map[string]vocab.Status

	// StatusesError is the error returned by [Provider.Statuses].
	StatusesError error

	// TranslateResult is returned by [Provider.Translate].
	TranslateResult vocab.Translation

	// TranslateError is the error returned by [Provider.Translate].
	TranslateError error

	// UpdateStatusError is returned by [Provider.UpdateStatus].
	UpdateStatusError error

	// LanguagesResult is returned by [Provider.Languages] (may be nil).
	LanguagesResult []vocab.Language

	// LanguagesError is the error returned by [Provider.Languages].
	LanguagesError error

	// VocabularyResult is returned by [Provider.Vocabulary] (may be nil).
	VocabularyResult []vocab.Entry

	// VocabularyError is the error returned by [Provider.Vocabulary].
	VocabularyError error

	// EditTranslationError is returned by [Provider.EditTranslation].
	EditTranslationError error

	// DeleteWordError is returned by [Provider.DeleteWord].
	DeleteWordError error

	// StatusesCalls records all Statuses invocations.
	StatusesCalls []vocab.StatusRequest

	// TranslateCalls records all Translate invocations.
	TranslateCalls []TranslateCall

	// UpdateStatusCalls records all UpdateStatus invocations.
	UpdateStatusCalls []vocab.StatusUpdate

	// CallCountLanguages records how many times Languages was called.
	CallCountLanguages int

	// VocabularyCalls records all Vocabulary invocations.
	VocabularyCalls []vocab.VocabularyFilter

	// EditTranslationCalls records all EditTranslation invocations.
	EditTranslationCalls []vocab.Edit

	// DeleteWordCalls records all DeleteWord invocations.
	DeleteWordCalls []vocab.Key
}

// Statuses implements [vocab.Provider].
func (p *Provider) Statuses(_ context.Context, req vocab.StatusRequest) (map[string]vocab.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StatusesCalls = append(p.StatusesCalls, req)
	return p.StatusesResult, p.StatusesError
}

// Translate implements [vocab.Provider].
func (p *Provider) Translate(_ context.Context, req vocab.TranslateRequest) (vocab.Translation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.TranslateCalls = append(p.TranslateCalls, TranslateCall{Request: req})
	return p.TranslateResult, p.TranslateError
}

// UpdateStatus implements [vocab.Provider].
func (p *Provider) UpdateStatus(_ context.Context, upd vocab.StatusUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.UpdateStatusCalls = append(p.UpdateStatusCalls, upd)
	return p.UpdateStatusError
}

// Languages implements [vocab.Provider].
func (p *Provider) Languages(_ context.Context) ([]vocab.Language, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallCountLanguages++
	return p.LanguagesResult, p.LanguagesError
}

// Vocabulary implements [vocab.Provider].
func (p *Provider) Vocabulary(_ context.Context, f vocab.VocabularyFilter) ([]vocab.Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.VocabularyCalls = append(p.VocabularyCalls, f)
	return p.VocabularyResult, p.VocabularyError
}

// EditTranslation implements [vocab.Provider].
func (p *Provider) EditTranslation(_ context.Context, e vocab.Edit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.EditTranslationCalls = append(p.EditTranslationCalls, e)
	return p.EditTranslationError
}

// DeleteWord implements [vocab.Provider].
func (p *Provider) DeleteWord(_ context.Context, k vocab.Key) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DeleteWordCalls = append(p.DeleteWordCalls, k)
	return p.DeleteWordError
}
