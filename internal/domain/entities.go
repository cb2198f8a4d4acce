package domain

import "time"

// Role values carried by chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// EmbeddingDim is the fixed dimension of every chunk embedding in the
// system. The store rejects mismatched vectors at ingestion and the ranker
// skips them at query time.
const EmbeddingDim = 384

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Document struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Chunk struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding"`
}

// ScoredChunk pairs chunk content with its source filename and cosine
// similarity to a query.
type ScoredChunk struct {
	Content    string
	Filename   string
	Similarity float64
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat holds an ordered message sequence. The sequence is append-mostly, but
// every update rewrites the whole list at the storage layer.
type Chat struct {
	ID        int64     `json:"id"`
	ProjectID *int64    `json:"project_id"`
	Title     string    `json:"title"`
	Context   string    `json:"context"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectPatch is a partial project update. Each field carries an explicit
// presence flag so that legitimate empty strings remain settable.
type ProjectPatch struct {
	Name           string
	HasName        bool
	Description    string
	HasDescription bool
}

func (p ProjectPatch) Empty() bool {
	return !p.HasName && !p.HasDescription
}

// ChatPatch is a partial chat update with per-field presence flags.
type ChatPatch struct {
	Title       string
	HasTitle    bool
	Messages    []Message
	HasMessages bool
	Context     string
	HasContext  bool
}

func (p ChatPatch) Empty() bool {
	return !p.HasTitle && !p.HasMessages && !p.HasContext
}

// ProjectStats summarizes a project's retrieval corpus.
type ProjectStats struct {
	DocumentCount int    `json:"document_count"`
	ChunkCount    int    `json:"chunk_count"`
	Status        string `json:"status"`
}

// StatsStatus derives the corpus status from the document count.
func StatsStatus(documentCount int) string {
	if documentCount > 0 {
		return "active"
	}
	return "empty"
}
