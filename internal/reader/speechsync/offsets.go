// Package speechsync keeps the visual word highlight in lock-step with the
// boundary event stream of an external speech synthesizer.
//
// The hard part is that boundary offsets are computed by the synthesizer
// against the page's canonical full text, while the highlight targets the
// rendered word-unit sequence, which may segment differently. The package
// builds an approximate character-offset table over the unit sequence and
// resolves each boundary with a nearest-containing-range lookup, falling
// back to fuzzy re-anchoring when offsets drift out of the table.
package speechsync

import (
	"strings"

	"github.com/lectorhq/lector/internal/reader"
)

// Range is a half-open character range [Start, End) within the assumed
// single-space joining of the unit sequence.
type Range struct {
	Start int
	End   int
}

// OffsetTable maps character offsets to word-unit indices. It is an
// approximation: the synthesizer speaks the page's full text, which may not
// join units with exactly one space, so lookups tolerate misses.
type OffsetTable struct {
	ranges []Range
	words  []string
}

// BuildOffsetTable assigns each unit a range assuming units are joined by
// exactly one space: the start of unit i is the sum of the trimmed lengths
// of all preceding units plus one separator each. Lengths are counted in
// runes to match the synthesizer's character-based offsets.
func BuildOffsetTable(units []reader.WordUnit) *OffsetTable {
	t := &OffsetTable{
		ranges: make([]Range, 0, len(units)),
		words:  make([]string, 0, len(units)),
	}
	pos := 0
	for _, u := range units {
		w := strings.TrimSpace(u.Raw)
		n := len([]rune(w))
		t.ranges = append(t.ranges, Range{Start: pos, End: pos + n})
		t.words = append(t.words, w)
		pos += n + 1
	}
	return t
}

// Lookup returns the index of the first unit whose range contains offset.
// A miss means the offset drifted past the table; callers treat that as a
// tolerated approximation, not an error.
func (t *OffsetTable) Lookup(offset int) (int, bool) {
	for i, r := range t.ranges {
		if r.Start <= offset && offset < r.End {
			return i, true
		}
	}
	return 0, false
}

// Len returns the number of unit ranges in the table.
func (t *OffsetTable) Len() int {
	return len(t.ranges)
}

// Word returns the trimmed text of unit i, used by drift recovery.
func (t *OffsetTable) Word(i int) string {
	if i < 0 || i >= len(t.words) {
		return ""
	}
	return t.words[i]
}
