package resilience

import (
	"context"

	"github.com/lectorhq/lector/pkg/provider/vocab"
)

// VocabFallback implements [vocab.Provider] with automatic failover across
// multiple vocabulary backends. Each backend has its own circuit breaker; when
// the primary fails or its breaker is open, the next healthy fallback is tried.
type VocabFallback struct {
	group *FallbackGroup[vocab.Provider]
}

// Compile-time interface assertion.
var _ vocab.Provider = (*VocabFallback)(nil)

// NewVocabFallback creates a [VocabFallback] with primary as the preferred
// backend.
func NewVocabFallback(primary vocab.Provider, primaryName string, cfg FallbackConfig) *VocabFallback {
	return &VocabFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional vocabulary provider as a fallback.
func (f *VocabFallback) AddFallback(name string, provider vocab.Provider) {
	f.group.AddFallback(name, provider)
}

// Statuses sends the bulk lookup to the first healthy provider.
func (f *VocabFallback) Statuses(ctx context.Context, req vocab.StatusRequest) (map[string]vocab.Status, error) {
	return ExecuteWithResult(f.group, func(p vocab.Provider) (map[string]vocab.Status, error) {
		return p.Statuses(ctx, req)
	})
}

// Translate sends the translation request to the first healthy provider.
func (f *VocabFallback) Translate(ctx context.Context, req vocab.TranslateRequest) (vocab.Translation, error) {
	return ExecuteWithResult(f.group, func(p vocab.Provider) (vocab.Translation, error) {
		return p.Translate(ctx, req)
	})
}

// UpdateStatus persists the status change via the first healthy provider.
func (f *VocabFallback) UpdateStatus(ctx context.Context, upd vocab.StatusUpdate) error {
	return f.group.Execute(func(p vocab.Provider) error {
		return p.UpdateStatus(ctx, upd)
	})
}

// Languages lists supported languages from the first healthy provider.
func (f *VocabFallback) Languages(ctx context.Context) ([]vocab.Language, error) {
	return ExecuteWithResult(f.group, func(p vocab.Provider) ([]vocab.Language, error) {
		return p.Languages(ctx)
	})
}

// Vocabulary fetches the stored word list from the first healthy provider.
func (f *VocabFallback) Vocabulary(ctx context.Context, filter vocab.VocabularyFilter) ([]vocab.Entry, error) {
	return ExecuteWithResult(f.group, func(p vocab.Provider) ([]vocab.Entry, error) {
		return p.Vocabulary(ctx, filter)
	})
}

// EditTranslation updates a stored translation via the first healthy provider.
func (f *VocabFallback) EditTranslation(ctx context.Context, edit vocab.Edit) error {
	return f.group.Execute(func(p vocab.Provider) error {
		return p.EditTranslation(ctx, edit)
	})
}

// DeleteWord removes a vocabulary entry via the first healthy provider.
func (f *VocabFallback) DeleteWord(ctx context.Context, key vocab.Key) error {
	return f.group.Execute(func(p vocab.Provider) error {
		return p.DeleteWord(ctx, key)
	})
}
