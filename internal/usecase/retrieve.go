package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"krakengpt/internal/domain"
	"krakengpt/internal/logger"
	"krakengpt/internal/port"
)

// contextSeparator joins formatted chunk blocks in the assembled context.
const contextSeparator = "\n\n---\n\n"

// Retriever ranks a project's chunks against a query by cosine similarity
// and assembles the retrieval context. Purely a read path: a project with no
// chunks, or no chunk above the relevance floor, yields an empty context and
// no error.
type Retriever struct {
	store    port.Store
	embedder port.Embedder
	log      *logger.Logger
	topK     int
	minScore float64
}

func NewRetriever(store port.Store, embedder port.Embedder, log *logger.Logger, topK int, minScore float64) *Retriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
		log:      log.With("service", "Retriever"),
		topK:     topK,
		minScore: minScore,
	}
}

// Search embeds the query, scores every chunk scoped to the project and
// returns the formatted context for the surviving top chunks. Chunks whose
// stored embedding cannot be parsed, or whose dimension does not match the
// query embedding, are skipped rather than failing the search.
func (r *Retriever) Search(query string, projectID int64) (string, error) {
	embeddings, err := r.embedder.Embed([]string{query})
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return "", fmt.Errorf("embedder returned no vector for query")
	}
	queryVec := embeddings[0]

	rows, err := r.store.ProjectChunks(projectID)
	if err != nil {
		return "", fmt.Errorf("failed to load project chunks: %w", err)
	}
	if len(rows) == 0 {
		return "", nil
	}

	scored := make([]domain.ScoredChunk, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		var vec []float32
		if err := json.Unmarshal(row.Embedding, &vec); err != nil {
			skipped++
			continue
		}
		if len(vec) != len(queryVec) {
			skipped++
			continue
		}
		scored = append(scored, domain.ScoredChunk{
			Content:    row.Content,
			Filename:   row.Filename,
			Similarity: cosineSimilarity(queryVec, vec),
		})
	}
	if skipped > 0 {
		r.log.Warn("skipped unparseable chunk embeddings", "project_id", projectID, "skipped", skipped)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > r.topK {
		scored = scored[:r.topK]
	}

	relevant := scored[:0]
	for _, c := range scored {
		if c.Similarity >= r.minScore {
			relevant = append(relevant, c)
		}
	}
	if len(relevant) == 0 {
		return "", nil
	}

	blocks := make([]string, 0, len(relevant))
	for _, c := range relevant {
		blocks = append(blocks, fmt.Sprintf("[Fonte: %s - Rilevanza: %.1f%%]\n%s",
			c.Filename, c.Similarity*100, c.Content))
	}
	return strings.Join(blocks, contextSeparator), nil
}

// cosineSimilarity returns dot(a, b) / (|a| * |b|), or 0 when either vector
// has zero norm.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
