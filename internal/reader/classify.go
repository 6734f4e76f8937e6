package reader

import (
	"context"
	"log/slog"

	"github.com/lectorhq/lector/pkg/provider/vocab"
)

// Classifier decorates a page's word units with learning statuses from the
// vocabulary backend.
type Classifier struct {
	provider vocab.Provider
	log      *slog.Logger
}

// NewClassifier creates a Classifier. logger may be nil, in which case the
// default logger is used.
func NewClassifier(provider vocab.Provider, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{provider: provider, log: logger}
}

// Classify performs exactly one bulk status lookup for the page and applies
// the result to every unit. Units with no record classify as "new".
//
// A lookup failure is a soft failure: the page renders with every unit "new"
// and the error is logged, never surfaced to the user.
func (c *Classifier) Classify(ctx context.Context, page *Page, sourceLang, targetLang string) {
	forms := uniqueNormalizedForms(page.Units)
	if len(forms) == 0 {
		return
	}

	statuses, err := c.provider.Statuses(ctx, vocab.StatusRequest{
		Words:      forms,
		SourceLang: sourceLang,
		TargetLang: targetLang,
	})
	if err != nil {
		c.log.Warn("vocabulary lookup failed, classifying page as new",
			"page", page.Index,
			"words", len(forms),
			"error", err)
		statuses = nil
	}

	ApplyStatuses(page.Units, statuses)
}

// ApplyStatuses maps each unit's normalized form through statuses, defaulting
// to "new" for absent keys. Safe to re-apply from scratch on every page view.
func ApplyStatuses(units []WordUnit, statuses map[string]vocab.Status) {
	for i := range units {
		if st, ok := statuses[units[i].Normalized]; ok && st.IsValid() {
			units[i].Status = st
		} else {
			units[i].Status = vocab.StatusNew
		}
	}
}

// uniqueNormalizedForms returns the deduplicated non-empty lookup keys of
// units, in first-appearance order.
func uniqueNormalizedForms(units []WordUnit) []string {
	seen := make(map[string]struct{}, len(units))
	forms := make([]string, 0, len(units))
	for _, u := range units {
		if u.Normalized == "" {
			continue
		}
		if _, ok := seen[u.Normalized]; ok {
			continue
		}
		seen[u.Normalized] = struct{}{}
		forms = append(forms, u.Normalized)
	}
	return forms
}
