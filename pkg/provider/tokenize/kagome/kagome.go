// Package kagome implements [tokenize.Tokenizer] with a morphological
// analyzer for Japanese text, where word boundaries are not marked by
// whitespace.
package kagome

import (
	"context"
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/lectorhq/lector/pkg/provider/tokenize"
)

// Compile-time interface assertion.
var _ tokenize.Tokenizer = (*Tokenizer)(nil)

// Tokenizer wraps a kagome analyzer with the bundled IPA dictionary.
// The underlying analyzer is safe for concurrent use.
type Tokenizer struct {
	t *tokenizer.Tokenizer
}

// New creates a Tokenizer backed by the IPA dictionary.
func New() (*Tokenizer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("kagome: create tokenizer: %w", err)
	}
	return &Tokenizer{t: t}, nil
}

// Tokenize implements [tokenize.Tokenizer]. Dummy and whitespace-only tokens
// are dropped; every returned surface form renders as one interactive unit.
func (k *Tokenizer) Tokenize(ctx context.Context, text string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("kagome: tokenize: %w", err)
	}

	var surfaces []string
	for _, tok := range k.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		surfaces = append(surfaces, tok.Surface)
	}
	return surfaces, nil
}
