package textsim

import "testing"

func TestRatioIdentical(t *testing.T) {
	if got := Ratio("binary search halves the range", "binary search halves the range"); got != 1.0 {
		t.Fatalf("identical strings should score 1.0, got %f", got)
	}
}

func TestRatioDisjoint(t *testing.T) {
	if got := Ratio("aaaa", "zzzz"); got != 0.0 {
		t.Fatalf("disjoint strings should score 0.0, got %f", got)
	}
}

func TestRatioNearDuplicate(t *testing.T) {
	a := "What is the time complexity of binary search on a sorted array?"
	b := "What is the time complexity of binary search on a sorted slice?"
	if got := Ratio(a, b); got < 0.85 {
		t.Fatalf("near duplicates should score high, got %f", got)
	}
}

func TestRatioIgnoresCaseAndSpacing(t *testing.T) {
	if got := Ratio("Binary  Search", "binary search"); got != 1.0 {
		t.Fatalf("case/spacing should not matter, got %f", got)
	}
}

func TestRatioUnrelatedQuestions(t *testing.T) {
	a := "Which sorting algorithm has the best average case performance?"
	b := "Name the four layers of the TCP/IP reference model."
	if got := Ratio(a, b); got > 0.5 {
		t.Fatalf("unrelated questions should score low, got %f", got)
	}
}

func TestPrefixRatio(t *testing.T) {
	a := "The quick brown fox jumps over the lazy dog. Tail A diverges here completely with other words."
	b := "The quick brown fox jumps over the lazy dog. Something else entirely follows in this variant text."
	short := PrefixRatio(a, b, 40)
	full := Ratio(a, b)
	if short < 0.95 {
		t.Fatalf("shared prefix should dominate prefix ratio, got %f", short)
	}
	if short <= full {
		t.Fatalf("prefix ratio %f should exceed full ratio %f", short, full)
	}
}

func TestRatioEmpty(t *testing.T) {
	if got := Ratio("", ""); got != 1.0 {
		t.Fatalf("two empty strings are identical, got %f", got)
	}
	if got := Ratio("text", ""); got != 0.0 {
		t.Fatalf("empty vs non-empty should be 0, got %f", got)
	}
}
