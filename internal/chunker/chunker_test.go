package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/examgen/examgen/internal/extract"
)

func makePages(texts ...string) []extract.Page {
	pages := make([]extract.Page, 0, len(texts))
	for i, txt := range texts {
		pages = append(pages, extract.Page{Number: i + 1, Text: txt})
	}
	return pages
}

func sentences(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("The process of cellular respiration converts glucose into usable energy. ")
	}
	return sb.String()
}

func TestChunkRespectsSizeLimit(t *testing.T) {
	c := New(Config{MaxChars: 300, Overlap: 60, MinChars: 50})
	chunks := c.Chunk(makePages(sentences(40)), Meta{SubjectID: "s1", MaterialID: "m1"})
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len(chunk.Text), 300, "chunk exceeds size limit: %q", chunk.Text)
		require.GreaterOrEqual(t, len(chunk.Text), 50)
	}
}

func TestChunkStartsAtSentenceBoundary(t *testing.T) {
	c := New(Config{MaxChars: 300, Overlap: 80, MinChars: 50})
	chunks := c.Chunk(makePages(sentences(40)), Meta{})
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks[1:] {
		require.True(t, strings.HasPrefix(chunk.Text, "The process"),
			"chunk opens mid-sentence: %q", chunk.Text[:40])
	}
}

func TestChunkDropsShortAndNoisySpans(t *testing.T) {
	c := New(Config{MaxChars: 2000, Overlap: 400, MinChars: 50})
	pages := makePages("Chapter 3\n\n1.1 ..... 4\n1.2 ..... 9\n\ntiny")
	chunks := c.Chunk(pages, Meta{})
	require.Empty(t, chunks)
}

func TestChunkDeduplicatesIdenticalSpans(t *testing.T) {
	paragraph := sentences(3)
	c := New(Config{MaxChars: 2000, Overlap: 400, MinChars: 50})
	chunks := c.Chunk(makePages(paragraph, paragraph), Meta{})
	texts := make(map[string]int)
	for _, chunk := range chunks {
		texts[chunk.Hash]++
	}
	for hash, count := range texts {
		require.Equal(t, 1, count, "duplicate chunk survived: %s", hash)
	}
}

func TestChunkStripsPublisherBoilerplate(t *testing.T) {
	text := "Copyright 2019 Pearson Education. All rights reserved.\n" +
		"ISBN: 978-0-13-409341-3\n" +
		sentences(4)
	c := New(Config{MaxChars: 2000, Overlap: 400, MinChars: 50})
	chunks := c.Chunk(makePages(text), Meta{})
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		require.NotContains(t, chunk.Text, "Pearson")
		require.NotContains(t, chunk.Text, "ISBN")
	}
}

func TestChunkPageLabels(t *testing.T) {
	c := New(Config{MaxChars: 5000, Overlap: 200, MinChars: 50})
	chunks := c.Chunk(makePages(sentences(3), sentences(3)), Meta{})
	require.NotEmpty(t, chunks)
	// Both pages are near-identical, so dedup keeps one chunk; its label
	// still names where the surviving span came from.
	for _, chunk := range chunks {
		require.NotEmpty(t, chunk.PageLabel)
	}
}

func TestChunkStraddlingPagesGetsRangeLabel(t *testing.T) {
	c := New(Config{MaxChars: 20000, Overlap: 200, MinChars: 50})
	pageA := "Photosynthesis converts light energy into chemical energy stored in glucose molecules."
	pageB := "Respiration then releases that stored energy to drive cellular work in the organism."
	chunks := c.Chunk(makePages(pageA, pageB), Meta{})
	require.Len(t, chunks, 1)
	require.Equal(t, "1-2", chunks[0].PageLabel)
}

func TestChunkEmptyInput(t *testing.T) {
	c := New(Config{})
	require.Nil(t, c.Chunk(nil, Meta{}))
	require.Nil(t, c.Chunk(makePages("", "   "), Meta{}))
}

func TestIsNoise(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"heading only", "Chapter 7", true},
		{"toc fragment", "Introduction ........ 1\nMethods ........ 12", true},
		{"numeric table", "1 2 3 4 5 6 7 8 9 10 11 12", true},
		{"real prose", "Mitochondria are the site of aerobic respiration in eukaryotic cells.", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, IsNoise(tc.text))
		})
	}
}
