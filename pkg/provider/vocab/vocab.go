// Package vocab defines the Provider interface for the vocabulary backend
// collaborator and its supporting types.
//
// The backend owns all persistence and all actual translation work: Lector
// only asks it questions. The interface mirrors the four interactions the
// reader core needs — bulk status classification for a page, contextual
// translation of a clicked word, learning-status updates, and the supported
// target-language list — plus the vocabulary-manager operations (list, edit,
// delete) used by the vocabulary view.
//
// Implementations are provided by backend-specific packages (see the rest
// subpackage). The interface is intentionally narrow so that the reader core
// remains backend-agnostic.
package vocab

import "context"

// Status is the learning classification of a word for one language pair.
type Status string

const (
	// StatusNew marks a word the learner has never recorded. It is the
	// default for any word the backend has no record of.
	StatusNew Status = "new"

	// StatusLearning marks a word the learner is actively studying.
	StatusLearning Status = "learning"

	// StatusKnown marks a word the learner has mastered.
	StatusKnown Status = "known"
)

// IsValid reports whether s is a recognised learning status.
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusLearning, StatusKnown:
		return true
	}
	return false
}

// StatusRequest asks for the learning status of every word on a page in one
// round trip. Words must be normalized forms (lowercase, trailing punctuation
// stripped) and should be deduplicated by the caller.
type StatusRequest struct {
	Words      []string
	SourceLang string
	TargetLang string
}

// TranslateRequest asks for the translation of a single clicked word together
// with its enclosing sentence for context.
type TranslateRequest struct {
	Word       string
	Sentence   string
	SourceLang string
	TargetLang string
}

// Translation is the backend's answer to a [TranslateRequest].
type Translation struct {
	// Translation is the translated word.
	Translation string

	// Status is the word's current learning status after the lookup.
	// The backend may create a record as a side effect of translating.
	Status Status

	// SourceSentence and TranslatedSentence carry the contextual sentence
	// pair when the backend translated the sentence too. Both empty when no
	// sentence was sent.
	SourceSentence     string
	TranslatedSentence string
}

// StatusUpdate records the learner's explicit reclassification of a word.
type StatusUpdate struct {
	Word       string
	SourceLang string
	TargetLang string
	Status     Status
}

// Language describes one supported translation target language.
type Language struct {
	// Code is the ISO 639-1 language code (e.g. "es").
	Code string

	// Name is the human-readable language name, when the backend provides one.
	Name string
}

// VocabularyFilter narrows a vocabulary listing. Zero values mean "all".
type VocabularyFilter struct {
	Status     Status
	TargetLang string
}

// Entry is one stored vocabulary record as listed by the backend.
type Entry struct {
	Word        string
	Translation string
	SourceLang  string
	TargetLang  string
	Status      Status
}

// Key identifies one vocabulary record for edit and delete operations.
type Key struct {
	Word       string
	SourceLang string
	TargetLang string
}

// Edit replaces the stored translation of one vocabulary record.
type Edit struct {
	Key
	Translation string
}

// Provider is the vocabulary backend collaborator.
//
// All methods respect context cancellation. Implementations must be safe for
// concurrent use: a reading session issues classification, translation, and
// status updates from independent interleaved interactions.
type Provider interface {
	// Statuses performs the bulk classification lookup for a page. The
	// returned map contains an entry for every word the backend has a record
	// of; absent keys mean [StatusNew]. Exactly one call is made per page
	// render regardless of page size.
	Statuses(ctx context.Context, req StatusRequest) (map[string]Status, error)

	// Translate returns the translation of one word in its sentence context.
	Translate(ctx context.Context, req TranslateRequest) (Translation, error)

	// UpdateStatus persists a learning-status change. On success the caller
	// applies the change to its local word units optimistically.
	UpdateStatus(ctx context.Context, upd StatusUpdate) error

	// Languages lists the supported translation target languages.
	Languages(ctx context.Context) ([]Language, error)

	// Vocabulary lists stored records matching the filter.
	Vocabulary(ctx context.Context, f VocabularyFilter) ([]Entry, error)

	// EditTranslation replaces the stored translation of one record.
	EditTranslation(ctx context.Context, e Edit) error

	// DeleteWord removes one record.
	DeleteWord(ctx context.Context, k Key) error
}
