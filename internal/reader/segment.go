package reader

import "unicode"

// Fragment is one rendered piece of a page: either a word unit or an inert
// whitespace separator. Re-joining fragment texts in order reproduces the
// page's source text exactly for plain pages.
type Fragment struct {
	// Text is the fragment verbatim.
	Text string

	// UnitIndex is the index of the word unit this fragment renders, or
	// SeparatorFragment for whitespace separators.
	UnitIndex int
}

// SeparatorFragment marks a fragment that carries no word unit.
const SeparatorFragment = -1

// IsSeparator reports whether the fragment is an inert separator.
func (f Fragment) IsSeparator() bool {
	return f.UnitIndex == SeparatorFragment
}

// segmentPlain splits plain page text into word units and separator
// fragments. Units are the maximal non-whitespace runs in source order;
// whitespace runs between them are preserved verbatim as separators. Empty
// or whitespace-only text yields zero units.
func segmentPlain(text string) ([]WordUnit, []Fragment) {
	var (
		units     []WordUnit
		fragments []Fragment
	)

	runes := []rune(text)
	for i := 0; i < len(runes); {
		j := i
		inSpace := unicode.IsSpace(runes[i])
		for j < len(runes) && unicode.IsSpace(runes[j]) == inSpace {
			j++
		}
		chunk := string(runes[i:j])
		if inSpace {
			fragments = append(fragments, Fragment{Text: chunk, UnitIndex: SeparatorFragment})
		} else {
			u := WordUnit{
				Index:      len(units),
				Raw:        chunk,
				Normalized: Normalize(chunk),
				Status:     vocabDefaultStatus,
			}
			fragments = append(fragments, Fragment{Text: chunk, UnitIndex: u.Index})
			units = append(units, u)
		}
		i = j
	}
	return units, fragments
}

// segmentTokens turns a pre-tokenized page into units, one per token
// verbatim. Tokenized pages render without separators.
func segmentTokens(tokens []string) ([]WordUnit, []Fragment) {
	units := make([]WordUnit, 0, len(tokens))
	fragments := make([]Fragment, 0, len(tokens))
	for _, tok := range tokens {
		u := WordUnit{
			Index:      len(units),
			Raw:        tok,
			Normalized: Normalize(tok),
			Status:     vocabDefaultStatus,
		}
		fragments = append(fragments, Fragment{Text: tok, UnitIndex: u.Index})
		units = append(units, u)
	}
	return units, fragments
}
