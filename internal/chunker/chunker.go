package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/examgen/examgen/internal/extract"
	"github.com/examgen/examgen/internal/model"
)

type Config struct {
	MaxChars int
	Overlap  int
	MinChars int
}

type Meta struct {
	SubjectID  string
	TopicID    string
	MaterialID string
	Source     string
}

type Chunker struct {
	cfg Config
}

func New(cfg Config) *Chunker {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 2000
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.MaxChars {
		cfg.Overlap = cfg.MaxChars / 5
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 50
	}
	return &Chunker{cfg: cfg}
}

type pageSpan struct {
	start, end int
	number     int
}

// Chunk splits extracted pages into overlapping windows. Windows are cut at
// the strongest boundary available inside the size limit (paragraph, then
// line, then sentence, then word) and the overlap region is snapped forward
// to a sentence start so no chunk opens mid-sentence. Noisy spans and exact
// duplicates are dropped.
func (c *Chunker) Chunk(pages []extract.Page, meta Meta) []model.Chunk {
	var sb strings.Builder
	var spans []pageSpan
	for _, page := range pages {
		cleaned := stripBoilerplate(page.Text)
		if cleaned == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		start := sb.Len()
		sb.WriteString(cleaned)
		spans = append(spans, pageSpan{start: start, end: sb.Len(), number: page.Number})
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []model.Chunk
	seen := make(map[string]struct{})
	start := 0
	for start < len(text) {
		cut := c.cutPoint(text, start)
		piece := strings.TrimSpace(text[start:cut])
		if piece != "" && len(piece) >= c.cfg.MinChars && !IsNoise(piece) {
			hash := contentHash(piece)
			if _, dup := seen[hash]; !dup {
				seen[hash] = struct{}{}
				chunks = append(chunks, model.Chunk{
					ID:         uuid.NewString(),
					SubjectID:  meta.SubjectID,
					TopicID:    meta.TopicID,
					MaterialID: meta.MaterialID,
					Source:     meta.Source,
					Text:       piece,
					PageLabel:  pageLabel(spans, start, cut),
					Hash:       hash,
				})
			}
		}
		if cut >= len(text) {
			break
		}
		next := c.nextStart(text, cut)
		if next <= start {
			next = cut
		}
		start = next
	}
	return chunks
}

// cutPoint finds where the window starting at start should end. Boundaries
// are searched only in the back half of the window so a chunk never shrinks
// below half the target size just because a paragraph break sits early.
func (c *Chunker) cutPoint(text string, start int) int {
	limit := start + c.cfg.MaxChars
	if limit >= len(text) {
		return len(text)
	}
	floor := start + c.cfg.MaxChars/2

	if idx := strings.LastIndex(text[floor:limit], "\n\n"); idx >= 0 {
		return floor + idx
	}
	if idx := strings.LastIndexByte(text[floor:limit], '\n'); idx >= 0 {
		return floor + idx
	}
	if idx := lastSentenceEnd(text[floor:limit]); idx >= 0 {
		return floor + idx + 1
	}
	if idx := strings.LastIndexByte(text[floor:limit], ' '); idx >= 0 {
		return floor + idx
	}
	// No boundary at all; back off to a rune boundary and cut hard.
	for limit > start && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return limit
}

// nextStart rewinds by the overlap and snaps forward to the first sentence
// start inside the overlap region.
func (c *Chunker) nextStart(text string, cut int) int {
	start := cut - c.cfg.Overlap
	if start < 0 {
		start = 0
	}
	for start < cut && !utf8.RuneStart(text[start]) {
		start++
	}
	if idx := lastSentenceEnd(text[start:cut]); idx >= 0 {
		return start + idx + sentenceEndLen(text[start+idx:])
	}
	if idx := strings.IndexByte(text[start:cut], ' '); idx >= 0 {
		return start + idx + 1
	}
	return start
}

// lastSentenceEnd returns the offset of the final '.', '?' or '!' that is
// followed by whitespace, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		switch s[i] {
		case '.', '?', '!':
			if s[i+1] == ' ' || s[i+1] == '\n' || s[i+1] == '\t' {
				return i
			}
		}
	}
	return -1
}

func sentenceEndLen(s string) int {
	// s starts at the terminator; skip it plus following whitespace.
	n := 1
	for n < len(s) && (s[n] == ' ' || s[n] == '\n' || s[n] == '\t') {
		n++
	}
	return n
}

func pageLabel(spans []pageSpan, start, end int) string {
	first, last := 0, 0
	for _, span := range spans {
		if span.end <= start || span.start >= end {
			continue
		}
		if first == 0 {
			first = span.number
		}
		last = span.number
	}
	if first == 0 {
		return ""
	}
	if first == last {
		return fmt.Sprintf("%d", first)
	}
	return fmt.Sprintf("%d-%d", first, last)
}

func contentHash(text string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
