package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/lectorhq/lector/pkg/provider/tokenize"
)

// PageKind discriminates the two text representations a page can carry.
type PageKind string

const (
	// PagePlain pages hold free text segmented on whitespace.
	PagePlain PageKind = "plain"

	// PageTokenized pages hold pre-segmented tokens, used for scripts
	// without whitespace word boundaries.
	PageTokenized PageKind = "tokenized"
)

// Page is one unit of content with its rendered word-unit sequence.
//
// FullText is the canonical string handed to the speech synthesizer. It may
// segment differently from the rendered units (tokenized pages rejoin tokens
// with single spaces while the synthesizer receives the source text), which
// is why boundary offsets are reconciled with a best-effort table instead of
// exact matching.
type Page struct {
	Index     int
	Kind      PageKind
	Units     []WordUnit
	Fragments []Fragment
	FullText  string

	// ImageData is an opaque rendering of the page, passed through
	// untouched.
	ImageData []byte
}

// NewPlainPage builds a page from free text. The unit sequence and the
// separators between them reconstruct text exactly.
func NewPlainPage(index int, text string, image []byte) *Page {
	units, fragments := segmentPlain(text)
	return &Page{
		Index:     index,
		Kind:      PagePlain,
		Units:     units,
		Fragments: fragments,
		FullText:  text,
		ImageData: image,
	}
}

// NewTokenizedPage builds a page from pre-segmented tokens. fullText is the
// synthesizer input; when empty it falls back to the tokens joined with
// single spaces.
func NewTokenizedPage(index int, tokens []string, fullText string, image []byte) *Page {
	units, fragments := segmentTokens(tokens)
	if fullText == "" {
		fullText = strings.Join(tokens, " ")
	}
	return &Page{
		Index:     index,
		Kind:      PageTokenized,
		Units:     units,
		Fragments: fragments,
		FullText:  fullText,
		ImageData: image,
	}
}

// TokenizePage builds a tokenized page by running source text through a
// tokenizer. The source text stays the synthesizer input.
func TokenizePage(ctx context.Context, tk tokenize.Tokenizer, index int, text string, image []byte) (*Page, error) {
	tokens, err := tk.Tokenize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("reader: tokenize page %d: %w", index, err)
	}
	return NewTokenizedPage(index, tokens, text, image), nil
}

// Rendered reconstructs the displayed text from the fragment sequence.
func (p *Page) Rendered() string {
	var b strings.Builder
	for _, f := range p.Fragments {
		b.WriteString(f.Text)
	}
	return b.String()
}

// Unit returns the word unit at index, or false when the index is out of
// range for the current sequence.
func (p *Page) Unit(index int) (WordUnit, bool) {
	if index < 0 || index >= len(p.Units) {
		return WordUnit{}, false
	}
	return p.Units[index], true
}
