// Package tokenize defines the tokenizer collaborator used to build the
// token-per-unit page representation for languages without whitespace word
// boundaries.
package tokenize

import "context"

// Tokenizer splits source text into surface tokens. Whitespace handling is
// implementation-defined; callers render one interactive unit per returned
// token.
//
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]string, error)
}

// Func adapts a plain function to the Tokenizer interface.
type Func func(ctx context.Context, text string) ([]string, error)

// Tokenize implements [Tokenizer].
func (f Func) Tokenize(ctx context.Context, text string) ([]string, error) {
	return f(ctx, text)
}
