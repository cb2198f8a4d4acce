package chunker

import (
	"strings"
	"unicode/utf8"
)

// ParagraphChunker splits document text on blank-line boundaries and greedily
// packs paragraphs into chunks of at most size characters.
//
// When the text contains no blank-line boundary at all, it falls back to
// fixed-width slicing of the whole normalized text. The fallback is
// whole-text only: a single oversized paragraph inside otherwise well-chunked
// text is kept as one large chunk, not re-split.
type ParagraphChunker struct {
	size int
}

// NewParagraphChunker creates a chunker with the given target chunk size in
// characters.
func NewParagraphChunker(size int) *ParagraphChunker {
	return &ParagraphChunker{size: size}
}

// Chunk splits text into ordered, non-empty chunks. Deterministic.
func (c *ParagraphChunker) Chunk(text string) []string {
	norm := normalize(text)
	paragraphs := splitParagraphs(norm)

	// No blank-line boundary anywhere: slice the whole text into fixed
	// windows instead of greedy packing.
	if len(paragraphs) <= 1 {
		return c.slideWindows(norm)
	}

	var chunks []string
	current := ""
	for _, p := range paragraphs {
		if current != "" && utf8.RuneCountInString(current)+utf8.RuneCountInString(p) > c.size {
			chunks = append(chunks, strings.TrimSpace(current))
			current = p + "\n\n"
		} else {
			current += p + "\n\n"
		}
	}
	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

// slideWindows slices the whole text into non-overlapping windows of the
// target size in runes, discarding windows that trim to nothing.
func (c *ParagraphChunker) slideWindows(text string) []string {
	runes := []rune(text)
	var chunks []string
	for i := 0; i < len(runes); i += c.size {
		end := i + c.size
		if end > len(runes) {
			end = len(runes)
		}
		w := strings.TrimSpace(string(runes[i:end]))
		if w != "" {
			chunks = append(chunks, w)
		}
	}
	return chunks
}

// normalize unifies line endings and strips per-line whitespace.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
