package reader

import "strings"

// ResolveSentence reconstructs the sentence enclosing the unit at unitIndex
// by walking the fragment sequence outward to the nearest periods.
//
// The backward walk prepends fragments until one contains a period, keeping
// only the portion after that fragment's last period. The forward walk
// appends fragments and stops after the first fragment containing a period.
// Reaching a page boundary without a period degrades to the page edge, so
// the result may span from the first fragment to the last.
func ResolveSentence(fragments []Fragment, unitIndex int) string {
	pos := -1
	for i, f := range fragments {
		if f.UnitIndex == unitIndex {
			pos = i
			break
		}
	}
	if pos < 0 {
		return ""
	}

	var before string
	for i := pos - 1; i >= 0; i-- {
		text := fragments[i].Text
		if dot := strings.LastIndexByte(text, '.'); dot >= 0 {
			before = text[dot+1:] + before
			break
		}
		before = text + before
	}

	var after strings.Builder
	for i := pos + 1; i < len(fragments); i++ {
		text := fragments[i].Text
		after.WriteString(text)
		if strings.ContainsRune(text, '.') {
			break
		}
	}

	return strings.TrimSpace(before + fragments[pos].Text + after.String())
}
