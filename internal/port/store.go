package port

import (
	"errors"

	"krakengpt/internal/domain"
)

// ErrNotFound is returned by store reads whose target record is absent.
var ErrNotFound = errors.New("not found")

// ErrProjectExists is returned when creating a project whose name is taken.
var ErrProjectExists = errors.New("project already exists")

// RetrievalRow is the raw scoped chunk read used by the ranker. The
// embedding is returned exactly as stored; parsing (and skipping rows that
// fail to parse) is the ranker's job.
type RetrievalRow struct {
	Content   string
	Filename  string
	Embedding []byte
}

// Store is the persistence gateway for projects, chats, documents and
// chunks.
type Store interface {
	CreateProject(name, description string) (int64, error)

	ListProjects() ([]domain.Project, error)

	GetProject(id int64) (domain.Project, error)

	UpdateProject(id int64, patch domain.ProjectPatch) (bool, error)

	DeleteProject(id int64) (bool, error)

	CreateChat(projectID *int64, title string, messages []domain.Message, context string) (int64, error)

	ChatsByProject(projectID int64) ([]domain.Chat, error)

	GetChat(id int64) (domain.Chat, error)

	UpdateChat(id int64, patch domain.ChatPatch) (bool, error)

	DeleteChat(id int64) (bool, error)

	// InsertDocument creates one document row plus one chunk row per entry
	// in chunks, atomically. Zero chunks is valid: the document is still
	// created.
	InsertDocument(projectID int64, filename, content string, chunks []domain.Chunk) (int64, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(id int64) (bool, error)

	// ListDocuments returns a project's documents without their content.
	ListDocuments(projectID int64) ([]domain.Document, error)

	// ProjectChunks returns every chunk scoped to the project, joined with
	// its source filename.
	ProjectChunks(projectID int64) ([]RetrievalRow, error)

	// ProjectStats counts a project's documents and chunks.
	ProjectStats(projectID int64) (domain.ProjectStats, error)

	Close() error
}
