package speechsync

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

const (
	// recoverWindow bounds how many units around the last highlight are
	// considered when re-anchoring a drifted offset.
	recoverWindow = 8

	// recoverThreshold is the minimum Jaro-Winkler similarity for a
	// re-anchor candidate to win.
	recoverThreshold = 0.88
)

// recoverUnit re-anchors a boundary offset that fell outside the offset
// table. It extracts the word surrounding offset in the spoken full text and
// fuzzy-matches it against the units near the last highlighted one; playback
// advances mostly monotonically, so the true unit is almost always within a
// small forward window. Returns false when no candidate scores above the
// threshold, in which case the boundary is dropped.
func recoverUnit(table *OffsetTable, fullText string, offset, lastUnit int) (int, bool) {
	spoken := wordAt(fullText, offset)
	if spoken == "" {
		return 0, false
	}
	spoken = strings.ToLower(spoken)

	lo := lastUnit
	if lo < 0 {
		lo = 0
	}
	hi := lo + recoverWindow
	if hi > table.Len() {
		hi = table.Len()
	}

	best, bestScore := 0, 0.0
	for i := lo; i < hi; i++ {
		candidate := strings.ToLower(table.Word(i))
		if candidate == "" {
			continue
		}
		if s := matchr.JaroWinkler(spoken, candidate, false); s > bestScore {
			best, bestScore = i, s
		}
	}
	if bestScore < recoverThreshold {
		return 0, false
	}
	return best, true
}

// wordAt returns the maximal non-space run of fullText containing the rune
// at offset, or the empty string when offset lands on whitespace or outside
// the text.
func wordAt(fullText string, offset int) string {
	runes := []rune(fullText)
	if offset < 0 || offset >= len(runes) || unicode.IsSpace(runes[offset]) {
		return ""
	}
	start := offset
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	end := offset
	for end < len(runes) && !unicode.IsSpace(runes[end]) {
		end++
	}
	return string(runes[start:end])
}
