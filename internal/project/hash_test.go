package project

import (
	"strings"
	"testing"
)

func sections(contents ...string) []Section {
	out := make([]Section, len(contents))
	for i, c := range contents {
		out[i] = Section{ID: string(rune('a' + i)), Content: c}
	}
	return out
}

func TestHashSections_Deterministic(t *testing.T) {
	cases := [][]Section{
		nil,
		sections(""),
		sections("ab", "cd"),
		sections(strings.Repeat("lorem ipsum ", 100000)),
	}
	for _, s := range cases {
		if HashSections(s) != HashSections(s) {
			t.Errorf("HashSections not deterministic for %d sections", len(s))
		}
	}
}

func TestHashSections_BoundarySensitive(t *testing.T) {
	a := HashSections(sections("ab", "cd"))
	b := HashSections(sections("a", "bcd"))
	if a == b {
		t.Errorf("[ab cd] and [a bcd] hash equal: %s", a)
	}
}

func TestHashSections_EmptyVsEmptySection(t *testing.T) {
	if HashSections(nil) == HashSections(sections("")) {
		t.Error("no sections and one empty section should hash differently")
	}
}

func TestHashSections_IgnoresTitles(t *testing.T) {
	a := []Section{{ID: "x", Title: "One", Content: "same"}}
	b := []Section{{ID: "y", Title: "Two", Content: "same"}}
	if HashSections(a) != HashSections(b) {
		t.Error("hash should depend only on content")
	}
}

func TestHashSections_Hex(t *testing.T) {
	h := HashSections(sections("hello"))
	if h == "" {
		t.Fatal("hash should not be empty")
	}
	for _, r := range h {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Fatalf("hash %q is not lowercase hex", h)
		}
	}
}
