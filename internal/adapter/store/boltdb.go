package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"krakengpt/internal/domain"
	"krakengpt/internal/port"
)

var (
	bucketProjects     = []byte("projects")
	bucketProjectNames = []byte("project_names")
	bucketChats        = []byte("chats")
	bucketProjectChats = []byte("project_chats")
	bucketDocuments    = []byte("documents")
	bucketProjectDocs  = []byte("project_docs")
	bucketChunks       = []byte("chunks")
	bucketDocChunks    = []byte("doc_chunks")
)

// BoltStore is the bbolt-backed persistence gateway for projects, chats,
// documents and chunks.
//
// Chat message updates are wholesale read-modify-write operations with no
// cross-process locking: two concurrent updates to the same chat race and
// the later write wins.
type BoltStore struct {
	db  *bbolt.DB
	dim int
}

// NewBoltStore opens (or creates) the store at path. dim is the fixed
// embedding dimension; chunk inserts with a different vector length are
// rejected.
func NewBoltStore(path string, dim int) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{
			bucketProjects, bucketProjectNames,
			bucketChats, bucketProjectChats,
			bucketDocuments, bucketProjectDocs,
			bucketChunks, bucketDocChunks,
		}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, dim: dim}, nil
}

type projectMeta struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type chatMeta struct {
	ProjectID *int64           `json:"project_id"`
	Title     string           `json:"title"`
	Context   string           `json:"context"`
	Messages  []domain.Message `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type documentMeta struct {
	ProjectID int64     `json:"project_id"`
	Filename  string    `json:"filename"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type chunkMeta struct {
	DocumentID int64           `json:"document_id"`
	Content    string          `json:"content"`
	Embedding  json.RawMessage `json:"embedding"`
}

func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func btoi(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

// Project methods

func (s *BoltStore) CreateProject(name, description string) (int64, error) {
	var id int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		names := tx.Bucket(bucketProjectNames)
		if names.Get([]byte(name)) != nil {
			return port.ErrProjectExists
		}

		projects := tx.Bucket(bucketProjects)
		seq, err := projects.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)

		now := time.Now().UTC()
		data, err := json.Marshal(projectMeta{
			Name:        name,
			Description: description,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return err
		}
		if err := projects.Put(itob(id), data); err != nil {
			return err
		}
		return names.Put([]byte(name), itob(id))
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *BoltStore) ListProjects() ([]domain.Project, error) {
	var projects []domain.Project
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketProjects).ForEach(func(k, v []byte) error {
			var meta projectMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			projects = append(projects, projectFromMeta(btoi(k), meta))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

func (s *BoltStore) GetProject(id int64) (domain.Project, error) {
	var project domain.Project
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketProjects).Get(itob(id))
		if data == nil {
			return port.ErrNotFound
		}
		var meta projectMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		project = projectFromMeta(id, meta)
		return nil
	})
	return project, err
}

func (s *BoltStore) UpdateProject(id int64, patch domain.ProjectPatch) (bool, error) {
	if patch.Empty() {
		return false, nil
	}

	updated := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		projects := tx.Bucket(bucketProjects)
		data := projects.Get(itob(id))
		if data == nil {
			return nil
		}
		var meta projectMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}

		if patch.HasName && patch.Name != meta.Name {
			names := tx.Bucket(bucketProjectNames)
			if names.Get([]byte(patch.Name)) != nil {
				return port.ErrProjectExists
			}
			if err := names.Delete([]byte(meta.Name)); err != nil {
				return err
			}
			if err := names.Put([]byte(patch.Name), itob(id)); err != nil {
				return err
			}
			meta.Name = patch.Name
		}
		if patch.HasDescription {
			meta.Description = patch.Description
		}
		meta.UpdatedAt = time.Now().UTC()

		out, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := projects.Put(itob(id), out); err != nil {
			return err
		}
		updated = true
		return nil
	})
	return updated, err
}

func (s *BoltStore) DeleteProject(id int64) (bool, error) {
	deleted := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		projects := tx.Bucket(bucketProjects)
		data := projects.Get(itob(id))
		if data == nil {
			return nil
		}
		var meta projectMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}

		// Cascade: chats, then documents with their chunks.
		for _, chatID := range idList(tx.Bucket(bucketProjectChats), id) {
			if err := tx.Bucket(bucketChats).Delete(itob(chatID)); err != nil {
				return err
			}
		}
		if err := tx.Bucket(bucketProjectChats).Delete(itob(id)); err != nil {
			return err
		}

		for _, docID := range idList(tx.Bucket(bucketProjectDocs), id) {
			if err := deleteDocumentTx(tx, docID); err != nil {
				return err
			}
		}
		if err := tx.Bucket(bucketProjectDocs).Delete(itob(id)); err != nil {
			return err
		}

		if err := tx.Bucket(bucketProjectNames).Delete([]byte(meta.Name)); err != nil {
			return err
		}
		if err := projects.Delete(itob(id)); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// Chat methods

func (s *BoltStore) CreateChat(projectID *int64, title string, messages []domain.Message, context string) (int64, error) {
	if messages == nil {
		messages = []domain.Message{}
	}

	var id int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if projectID != nil {
			if tx.Bucket(bucketProjects).Get(itob(*projectID)) == nil {
				return port.ErrNotFound
			}
		}

		chats := tx.Bucket(bucketChats)
		seq, err := chats.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)

		now := time.Now().UTC()
		data, err := json.Marshal(chatMeta{
			ProjectID: projectID,
			Title:     title,
			Context:   context,
			Messages:  messages,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		if err := chats.Put(itob(id), data); err != nil {
			return err
		}

		if projectID != nil {
			return appendID(tx.Bucket(bucketProjectChats), *projectID, id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *BoltStore) ChatsByProject(projectID int64) ([]domain.Chat, error) {
	var chats []domain.Chat
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketChats)
		for _, chatID := range idList(tx.Bucket(bucketProjectChats), projectID) {
			data := bucket.Get(itob(chatID))
			if data == nil {
				continue
			}
			var meta chatMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				continue
			}
			chats = append(chats, chatFromMeta(chatID, meta))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (s *BoltStore) GetChat(id int64) (domain.Chat, error) {
	var chat domain.Chat
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChats).Get(itob(id))
		if data == nil {
			return port.ErrNotFound
		}
		var meta chatMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		chat = chatFromMeta(id, meta)
		return nil
	})
	return chat, err
}

func (s *BoltStore) UpdateChat(id int64, patch domain.ChatPatch) (bool, error) {
	if patch.Empty() {
		return false, nil
	}

	updated := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		chats := tx.Bucket(bucketChats)
		data := chats.Get(itob(id))
		if data == nil {
			return nil
		}
		var meta chatMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}

		if patch.HasTitle {
			meta.Title = patch.Title
		}
		if patch.HasMessages {
			meta.Messages = patch.Messages
		}
		if patch.HasContext {
			meta.Context = patch.Context
		}
		meta.UpdatedAt = time.Now().UTC()

		out, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := chats.Put(itob(id), out); err != nil {
			return err
		}
		updated = true
		return nil
	})
	return updated, err
}

func (s *BoltStore) DeleteChat(id int64) (bool, error) {
	deleted := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		chats := tx.Bucket(bucketChats)
		data := chats.Get(itob(id))
		if data == nil {
			return nil
		}
		var meta chatMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		if meta.ProjectID != nil {
			if err := removeID(tx.Bucket(bucketProjectChats), *meta.ProjectID, id); err != nil {
				return err
			}
		}
		if err := chats.Delete(itob(id)); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// Document and chunk methods

func (s *BoltStore) InsertDocument(projectID int64, filename, content string, chunks []domain.Chunk) (int64, error) {
	for i, c := range chunks {
		if len(c.Embedding) != s.dim {
			return 0, fmt.Errorf("chunk %d embedding has dimension %d, want %d", i, len(c.Embedding), s.dim)
		}
	}

	var docID int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketProjects).Get(itob(projectID)) == nil {
			return port.ErrNotFound
		}

		documents := tx.Bucket(bucketDocuments)
		seq, err := documents.NextSequence()
		if err != nil {
			return err
		}
		docID = int64(seq)

		data, err := json.Marshal(documentMeta{
			ProjectID: projectID,
			Filename:  filename,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := documents.Put(itob(docID), data); err != nil {
			return err
		}
		if err := appendID(tx.Bucket(bucketProjectDocs), projectID, docID); err != nil {
			return err
		}

		chunkBucket := tx.Bucket(bucketChunks)
		chunkIDs := make([]int64, 0, len(chunks))
		for _, c := range chunks {
			seq, err := chunkBucket.NextSequence()
			if err != nil {
				return err
			}
			chunkID := int64(seq)

			embedding, err := json.Marshal(c.Embedding)
			if err != nil {
				return err
			}
			out, err := json.Marshal(chunkMeta{
				DocumentID: docID,
				Content:    c.Content,
				Embedding:  embedding,
			})
			if err != nil {
				return err
			}
			if err := chunkBucket.Put(itob(chunkID), out); err != nil {
				return err
			}
			chunkIDs = append(chunkIDs, chunkID)
		}
		return putIDList(tx.Bucket(bucketDocChunks), docID, chunkIDs)
	})
	if err != nil {
		return 0, err
	}
	return docID, nil
}

func (s *BoltStore) DeleteDocument(id int64) (bool, error) {
	deleted := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get(itob(id))
		if data == nil {
			return nil
		}
		var meta documentMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		if err := removeID(tx.Bucket(bucketProjectDocs), meta.ProjectID, id); err != nil {
			return err
		}
		if err := deleteDocumentTx(tx, id); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (s *BoltStore) ListDocuments(projectID int64) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		for _, docID := range idList(tx.Bucket(bucketProjectDocs), projectID) {
			data := bucket.Get(itob(docID))
			if data == nil {
				continue
			}
			var meta documentMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				continue
			}
			docs = append(docs, domain.Document{
				ID:        docID,
				ProjectID: meta.ProjectID,
				Filename:  meta.Filename,
				CreatedAt: meta.CreatedAt,
			})
		}
		return nil
	})
	return docs, err
}

func (s *BoltStore) ProjectChunks(projectID int64) ([]port.RetrievalRow, error) {
	var rows []port.RetrievalRow
	err := s.db.View(func(tx *bbolt.Tx) error {
		documents := tx.Bucket(bucketDocuments)
		chunkBucket := tx.Bucket(bucketChunks)
		for _, docID := range idList(tx.Bucket(bucketProjectDocs), projectID) {
			docData := documents.Get(itob(docID))
			if docData == nil {
				continue
			}
			var doc documentMeta
			if err := json.Unmarshal(docData, &doc); err != nil {
				continue
			}
			for _, chunkID := range idList(tx.Bucket(bucketDocChunks), docID) {
				data := chunkBucket.Get(itob(chunkID))
				if data == nil {
					continue
				}
				var meta chunkMeta
				if err := json.Unmarshal(data, &meta); err != nil {
					continue
				}
				rows = append(rows, port.RetrievalRow{
					Content:   meta.Content,
					Filename:  doc.Filename,
					Embedding: meta.Embedding,
				})
			}
		}
		return nil
	})
	return rows, err
}

func (s *BoltStore) ProjectStats(projectID int64) (domain.ProjectStats, error) {
	stats := domain.ProjectStats{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		docIDs := idList(tx.Bucket(bucketProjectDocs), projectID)
		stats.DocumentCount = len(docIDs)
		for _, docID := range docIDs {
			stats.ChunkCount += len(idList(tx.Bucket(bucketDocChunks), docID))
		}
		return nil
	})
	if err != nil {
		return domain.ProjectStats{}, err
	}
	stats.Status = domain.StatsStatus(stats.DocumentCount)
	return stats, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// helpers

func deleteDocumentTx(tx *bbolt.Tx, docID int64) error {
	chunkBucket := tx.Bucket(bucketChunks)
	for _, chunkID := range idList(tx.Bucket(bucketDocChunks), docID) {
		if err := chunkBucket.Delete(itob(chunkID)); err != nil {
			return err
		}
	}
	if err := tx.Bucket(bucketDocChunks).Delete(itob(docID)); err != nil {
		return err
	}
	return tx.Bucket(bucketDocuments).Delete(itob(docID))
}

func idList(bucket *bbolt.Bucket, key int64) []int64 {
	data := bucket.Get(itob(key))
	if data == nil {
		return nil
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil
	}
	return ids
}

func putIDList(bucket *bbolt.Bucket, key int64, ids []int64) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return bucket.Put(itob(key), data)
}

func appendID(bucket *bbolt.Bucket, key, id int64) error {
	return putIDList(bucket, key, append(idList(bucket, key), id))
}

func removeID(bucket *bbolt.Bucket, key, id int64) error {
	ids := idList(bucket, key)
	filtered := make([]int64, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	return putIDList(bucket, key, filtered)
}

func projectFromMeta(id int64, meta projectMeta) domain.Project {
	return domain.Project{
		ID:          id,
		Name:        meta.Name,
		Description: meta.Description,
		CreatedAt:   meta.CreatedAt,
		UpdatedAt:   meta.UpdatedAt,
	}
}

func chatFromMeta(id int64, meta chatMeta) domain.Chat {
	messages := meta.Messages
	if messages == nil {
		messages = []domain.Message{}
	}
	return domain.Chat{
		ID:        id,
		ProjectID: meta.ProjectID,
		Title:     meta.Title,
		Context:   meta.Context,
		Messages:  messages,
		CreatedAt: meta.CreatedAt,
		UpdatedAt: meta.UpdatedAt,
	}
}
