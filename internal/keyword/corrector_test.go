package keyword

import "testing"

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"visa", "visa", 0},
		{"", "abc", 3},
		{"visa", "vias", 1},
		{"kitten", "sitting", 3},
		{"portugal", "protugal", 1},
		{"malta", "mälta", 1},
	}
	for _, tt := range tests {
		if got := EditDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("EditDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCorrector_Correct(t *testing.T) {
	c := NewCorrector([]string{"golden", "visa", "portugal", "residency", "citizenship"})

	got, changed := c.Correct("goldn visa protugal")
	if !changed || got != "golden visa portugal" {
		t.Errorf("Correct = %q, %v", got, changed)
	}

	got, changed = c.Correct("golden visa")
	if changed || got != "golden visa" {
		t.Errorf("known terms should be untouched: %q, %v", got, changed)
	}

	if _, changed := c.Correct("uk"); changed {
		t.Error("short terms should not be corrected")
	}
	if _, changed := c.Correct("zzzzzzzz"); changed {
		t.Error("terms beyond max distance should not be corrected")
	}
	if c.Len() != 5 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestCorrector_TieBreak(t *testing.T) {
	c := NewCorrector([]string{"bart", "cart"}, WithMinLength(3), WithMaxDistance(1))
	got, changed := c.Correct("dart")
	if !changed || got != "bart" {
		t.Errorf("tie should pick lexically smaller term, got %q", got)
	}
}
