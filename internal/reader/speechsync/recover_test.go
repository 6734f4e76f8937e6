package speechsync

import "testing"

func TestWordAt(t *testing.T) {
	t.Parallel()

	text := "El gato come pescado."
	cases := []struct {
		offset int
		want   string
	}{
		{0, "El"},
		{3, "gato"},
		{6, "gato"},
		{2, ""},  // whitespace
		{-1, ""}, // out of range
		{50, ""}, // out of range
		{13, "pescado."},
	}
	for _, tc := range cases {
		if got := wordAt(text, tc.offset); got != tc.want {
			t.Errorf("wordAt(%d) = %q, want %q", tc.offset, got, tc.want)
		}
	}
}

func TestRecoverUnit(t *testing.T) {
	t.Parallel()

	units := unitsFor("El", "gato", "come", "pescado.")
	table := BuildOffsetTable(units)

	// The spoken text carries an extra leading word the table never saw,
	// shifting every offset by 5. Offset 18 lands in "pescado." of the
	// spoken text but outside the table's "come" range.
	fullText := "Ayer el gato come pescado."

	idx, ok := recoverUnit(table, fullText, 18, 2)
	if !ok || idx != 3 {
		t.Errorf("recoverUnit = %d, %v, want 3, true", idx, ok)
	}
}

func TestRecoverUnit_NoMatch(t *testing.T) {
	t.Parallel()

	table := BuildOffsetTable(unitsFor("uno", "dos"))

	// Nothing in the window resembles the spoken word.
	if _, ok := recoverUnit(table, "zzzzzzzz", 2, 0); ok {
		t.Error("recoverUnit matched a dissimilar word")
	}

	// Whitespace offsets yield no spoken word.
	if _, ok := recoverUnit(table, "uno dos", 3, 0); ok {
		t.Error("recoverUnit matched at a whitespace offset")
	}
}
