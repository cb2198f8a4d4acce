package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParagraphChunkerReconstruction(t *testing.T) {
	paragraphs := []string{
		"First paragraph with a modest amount of text.",
		"Second paragraph, also small.",
		"Third paragraph closes the document.",
	}
	text := strings.Join(paragraphs, "\n\n")

	c := NewParagraphChunker(60)
	chunks := c.Chunk(text)

	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for _, chunk := range chunks {
		if chunk == "" {
			t.Error("chunk is empty")
		}
	}

	rebuilt := strings.Join(chunks, "\n\n")
	if rebuilt != text {
		t.Errorf("reconstruction mismatch:\ngot:  %q\nwant: %q", rebuilt, text)
	}
}

func TestParagraphChunkerDeterministic(t *testing.T) {
	text := "Alpha paragraph.\n\nBeta paragraph follows with more words.\n\nGamma."

	c := NewParagraphChunker(30)
	first := c.Chunk(text)
	second := c.Chunk(text)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestParagraphChunkerGreedyBoundary(t *testing.T) {
	// Two paragraphs that together exceed the size limit must land in
	// separate chunks; each alone fits.
	a := strings.Repeat("a", 40)
	b := strings.Repeat("b", 40)
	text := a + "\n\n" + b

	c := NewParagraphChunker(50)
	chunks := c.Chunk(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != a || chunks[1] != b {
		t.Errorf("unexpected chunk contents: %q, %q", chunks[0], chunks[1])
	}
}

func TestParagraphChunkerWindowFallback(t *testing.T) {
	// No blank-line boundaries anywhere: fall back to fixed windows over
	// the whole text.
	text := strings.Repeat("x", 125)

	c := NewParagraphChunker(50)
	chunks := c.Chunk(text)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(chunks))
	}
	if len(chunks[0]) != 50 || len(chunks[1]) != 50 || len(chunks[2]) != 25 {
		t.Errorf("window sizes: %d, %d, %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
	if strings.Join(chunks, "") != text {
		t.Error("windows do not cover the text exactly once")
	}
}

func TestParagraphChunkerWindowFallbackWithNewlines(t *testing.T) {
	// Single newlines are not paragraph boundaries; an unbroken block of
	// lines still falls back to fixed windows.
	line := strings.Repeat("y", 24)
	text := line + "\n" + line + "\n" + line

	c := NewParagraphChunker(50)
	chunks := c.Chunk(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 windows over 74 characters, got %d: %v", len(chunks), chunks)
	}
}

func TestParagraphChunkerWindowFallbackCountsRunes(t *testing.T) {
	// Window size is measured in characters, not bytes, and windows never
	// split a multi-byte rune.
	text := strings.Repeat("è", 60)

	c := NewParagraphChunker(25)
	chunks := c.Chunk(text)

	if len(chunks) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Errorf("window %d is not valid UTF-8: %q", i, chunk)
		}
	}
	counts := []int{
		utf8.RuneCountInString(chunks[0]),
		utf8.RuneCountInString(chunks[1]),
		utf8.RuneCountInString(chunks[2]),
	}
	if counts[0] != 25 || counts[1] != 25 || counts[2] != 10 {
		t.Errorf("window rune counts: %v", counts)
	}
	if strings.Join(chunks, "") != text {
		t.Error("windows do not cover the text exactly once")
	}
}

func TestParagraphChunkerShortUnbrokenText(t *testing.T) {
	// Text below the window size without boundaries stays one chunk.
	c := NewParagraphChunker(50)

	chunks := c.Chunk("una sola riga breve")
	if len(chunks) != 1 || chunks[0] != "una sola riga breve" {
		t.Errorf("unexpected chunks: %v", chunks)
	}
}

func TestParagraphChunkerOversizedParagraphKeptWhole(t *testing.T) {
	// An oversized paragraph inside otherwise chunkable text stays one
	// chunk; the whole-text window fallback must not trigger.
	big := strings.Repeat("z", 200)
	text := "small intro\n\n" + big + "\n\nsmall outro"

	c := NewParagraphChunker(50)
	chunks := c.Chunk(text)

	found := false
	for _, chunk := range chunks {
		if chunk == big {
			found = true
		}
		if len(chunk) > 50 && chunk != big {
			t.Errorf("unexpected oversized chunk: %q", chunk)
		}
	}
	if !found {
		t.Error("oversized paragraph was re-split")
	}
}

func TestParagraphChunkerEmptyInput(t *testing.T) {
	c := NewParagraphChunker(500)

	if got := c.Chunk(""); len(got) != 0 {
		t.Errorf("expected no chunks for empty input, got %d", len(got))
	}
	if got := c.Chunk("   \n\n  \n  "); len(got) != 0 {
		t.Errorf("expected no chunks for whitespace input, got %d", len(got))
	}
}

func TestParagraphChunkerNormalizesLineEndings(t *testing.T) {
	c := NewParagraphChunker(500)

	chunks := c.Chunk("one\r\n\r\ntwo\r\rthree")
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for _, chunk := range chunks {
		if strings.Contains(chunk, "\r") {
			t.Errorf("chunk retains carriage return: %q", chunk)
		}
	}
}
