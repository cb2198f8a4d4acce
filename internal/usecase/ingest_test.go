package usecase

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"krakengpt/internal/adapter/chunker"
	"krakengpt/internal/adapter/embedding"
	"krakengpt/internal/adapter/store"
	"krakengpt/internal/logger"
)

func newTestIngestor(t *testing.T) (*Ingestor, *store.BoltStore, int64) {
	t.Helper()

	s, err := store.NewBoltStore(filepath.Join(t.TempDir(), "ingest.db"), 8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	projectID, err := s.CreateProject("docs", "")
	if err != nil {
		t.Fatal(err)
	}

	ing := NewIngestor(s, chunker.NewParagraphChunker(500), embedding.NewLocalEmbedder(8), logger.NewNop())
	return ing, s, projectID
}

func TestIngestStoresDocumentAndChunks(t *testing.T) {
	ing, s, projectID := newTestIngestor(t)

	content := strings.Repeat("Il manuale descrive la procedura di avvio del sistema. ", 4) +
		"\n\n" + strings.Repeat("La seconda sezione copre la manutenzione ordinaria. ", 4)

	res, err := ing.Ingest(projectID, "manuale.txt", content)
	if err != nil {
		t.Fatal(err)
	}
	if res.DocumentID == 0 {
		t.Error("document id not assigned")
	}
	if res.ChunkCount == 0 {
		t.Error("expected at least one chunk")
	}
	if res.Stats.DocumentCount != 1 || res.Stats.ChunkCount != res.ChunkCount {
		t.Errorf("stats mismatch: %+v", res.Stats)
	}

	rows, err := s.ProjectChunks(projectID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != res.ChunkCount {
		t.Errorf("stored %d chunk rows, reported %d", len(rows), res.ChunkCount)
	}
	for _, row := range rows {
		if row.Filename != "manuale.txt" {
			t.Errorf("chunk row missing source filename: %+v", row)
		}
		if len(row.Embedding) == 0 {
			t.Error("chunk row missing embedding")
		}
	}
}

func TestIngestRejectsShortDocuments(t *testing.T) {
	ing, _, projectID := newTestIngestor(t)

	_, err := ing.Ingest(projectID, "breve.txt", "troppo corto")
	if !errors.Is(err, ErrDocumentTooShort) {
		t.Fatalf("expected ErrDocumentTooShort, got %v", err)
	}

	// Padding with whitespace must not sneak past the minimum.
	padded := "troppo corto" + strings.Repeat(" ", 100)
	if _, err := ing.Ingest(projectID, "breve.txt", padded); !errors.Is(err, ErrDocumentTooShort) {
		t.Fatalf("expected ErrDocumentTooShort for padded content, got %v", err)
	}

	// The minimum counts characters, not bytes: 49 two-byte runes are still
	// 49 characters.
	accented := strings.Repeat("è", 49)
	if _, err := ing.Ingest(projectID, "breve.txt", accented); !errors.Is(err, ErrDocumentTooShort) {
		t.Fatalf("expected ErrDocumentTooShort for 49-rune content, got %v", err)
	}
}

func TestIngestRejectsBinaryContent(t *testing.T) {
	ing, _, projectID := newTestIngestor(t)

	long := strings.Repeat("a", MinDocumentLength)
	cases := []string{
		long + "\x00binary",
		long + string([]byte{0xff, 0xfe, 0x00, 0x01}),
	}
	for _, content := range cases {
		if _, err := ing.Ingest(projectID, "blob.bin", content); !errors.Is(err, ErrNotText) {
			t.Fatalf("expected ErrNotText, got %v", err)
		}
	}
}

func TestIngestMissingProject(t *testing.T) {
	ing, _, _ := newTestIngestor(t)

	content := strings.Repeat("contenuto valido e abbastanza lungo per i controlli. ", 3)
	if _, err := ing.Ingest(9999, "orfano.txt", content); err == nil {
		t.Fatal("expected error for missing project")
	}
}
