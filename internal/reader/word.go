// Package reader implements the interactive text core of Lector: page
// segmentation into addressable word units, learning-status classification,
// sentence-context resolution, and the session object that keeps selection
// and highlight state consistent while translation requests and speech
// playback interleave.
package reader

import (
	"strings"

	"github.com/lectorhq/lector/pkg/provider/vocab"
)

// WordUnit is one addressable, classifiable, speakable token of page text.
//
// Units are rebuilt whenever their page becomes active. Index is stable for
// the page's lifetime and is the only durable handle: status updates target
// units by index, never by identity, so they stay correct across rebuilds.
type WordUnit struct {
	// Index is the 0-based position in the page's unit sequence.
	Index int

	// Raw is the unit exactly as it appears in source text, including
	// attached punctuation.
	Raw string

	// Normalized is the lowercase, trailing-punctuation-stripped form
	// used as the vocabulary lookup key.
	Normalized string

	// Status is the learning classification for the active language pair.
	Status vocab.Status
}

// trailingPunct is the punctuation set stripped from lookup keys.
const trailingPunct = ".,:;!?"

// vocabDefaultStatus classifies units with no vocabulary record.
const vocabDefaultStatus = vocab.StatusNew

// Normalize derives the vocabulary lookup key for a raw unit text: lowercase
// with any trailing punctuation run removed. Normalize is idempotent, so
// re-deriving a key from an already normalized form is a no-op.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.TrimRight(s, trailingPunct)
}
