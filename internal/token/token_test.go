package token

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerate_Format(t *testing.T) {
	t.Parallel()

	format := regexp.MustCompile(`^SJU-[0-9A-Z]{3}$`)
	for i := 0; i < 1000; i++ {
		got := Generate()
		if !format.MatchString(got) {
			t.Fatalf("generated token %q does not match SJU-XXX format", got)
		}
	}
}

func TestGenerate_UsesFullAlphabet(t *testing.T) {
	t.Parallel()

	seen := make(map[rune]bool)
	for i := 0; i < 5000; i++ {
		code := strings.TrimPrefix(Generate(), Prefix)
		for _, r := range code {
			seen[r] = true
		}
	}

	// 5000 draws of 3 characters make a missing alphabet member vanishingly
	// unlikely; a narrow character distribution indicates a biased generator.
	if len(seen) < 30 {
		t.Fatalf("expected broad coverage of the base-36 alphabet, saw %d distinct characters", len(seen))
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value string
		want  bool
	}{
		{"SJU-A1B", true},
		{"SJU-000", true},
		{"SJU-ZZZ", true},
		{"SJU-abc", false},
		{"SJU-A1", false},
		{"SJU-A1B2", false},
		{"XYZ-A1B", false},
		{"", false},
		{"SJU-A B", false},
	}

	for _, tc := range cases {
		if got := Valid(tc.value); got != tc.want {
			t.Errorf("Valid(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}
