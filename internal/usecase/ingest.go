package usecase

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"krakengpt/internal/domain"
	"krakengpt/internal/logger"
	"krakengpt/internal/port"
)

// MinDocumentLength is the smallest upload accepted for ingestion, in
// characters.
const MinDocumentLength = 50

// ErrDocumentTooShort rejects undersized uploads.
var ErrDocumentTooShort = fmt.Errorf("document shorter than %d characters", MinDocumentLength)

// ErrNotText rejects uploads that are not valid text.
var ErrNotText = errors.New("unsupported document encoding: plain text required")

// Ingestor turns an uploaded document into chunk rows with embeddings.
type Ingestor struct {
	store    port.Store
	chunker  port.Chunker
	embedder port.Embedder
	log      *logger.Logger
}

func NewIngestor(store port.Store, chunker port.Chunker, embedder port.Embedder, log *logger.Logger) *Ingestor {
	return &Ingestor{
		store:    store,
		chunker:  chunker,
		embedder: embedder,
		log:      log.With("service", "Ingestor"),
	}
}

// IngestResult reports the outcome of one ingestion.
type IngestResult struct {
	DocumentID int64
	ChunkCount int
	Stats      domain.ProjectStats
}

// Ingest validates, chunks and embeds content, then persists one document
// row plus one chunk row per chunk in a single write. Zero chunks still
// creates the document.
func (i *Ingestor) Ingest(projectID int64, filename, content string) (*IngestResult, error) {
	if !utf8.ValidString(content) || strings.ContainsRune(content, 0) {
		return nil, ErrNotText
	}
	if utf8.RuneCountInString(strings.TrimSpace(content)) < MinDocumentLength {
		return nil, ErrDocumentTooShort
	}

	chunks := i.chunker.Chunk(content)

	records := make([]domain.Chunk, 0, len(chunks))
	if len(chunks) > 0 {
		vectors, err := i.embedder.Embed(chunks)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(vectors) != len(chunks) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
		}
		for idx, chunk := range chunks {
			records = append(records, domain.Chunk{Content: chunk, Embedding: vectors[idx]})
		}
	}

	docID, err := i.store.InsertDocument(projectID, filename, content, records)
	if err != nil {
		return nil, err
	}

	stats, err := i.store.ProjectStats(projectID)
	if err != nil {
		return nil, err
	}

	i.log.Info("document ingested",
		"project_id", projectID,
		"filename", filename,
		"chunks", len(records),
	)
	return &IngestResult{
		DocumentID: docID,
		ChunkCount: len(records),
		Stats:      stats,
	}, nil
}
