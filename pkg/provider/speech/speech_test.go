package speech

import "testing"

func TestIsInterruption(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code string
		want bool
	}{
		{"canceled", true},
		{"interrupted", true},
		{"synthesis-cancelled", true},
		{"Interrupted", true},
		{"network", false},
		{"synthesis-failed", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsInterruption(tc.code); got != tc.want {
			t.Errorf("IsInterruption(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}
