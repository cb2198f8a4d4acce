package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"krakengpt/internal/logger"
	"krakengpt/internal/port"
	"krakengpt/internal/usecase"
)

type RAGHandler struct {
	store     port.Store
	ingestor  *usecase.Ingestor
	retriever *usecase.Retriever
	log       *logger.Logger
}

func NewRAGHandler(store port.Store, ingestor *usecase.Ingestor, retriever *usecase.Retriever, log *logger.Logger) *RAGHandler {
	return &RAGHandler{
		store:     store,
		ingestor:  ingestor,
		retriever: retriever,
		log:       log.With("handler", "rag"),
	}
}

// POST /api/projects/:id/documents
func (h *RAGHandler) UploadDocument(c *gin.Context) {
	projectID, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	result, err := h.ingestor.Ingest(projectID, header.Filename, string(content))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNotText), errors.Is(err, usecase.ErrDocumentTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, port.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"document_id": result.DocumentID,
		"filename":    header.Filename,
		"chunk_count": result.ChunkCount,
		"stats":       result.Stats,
	})
}

// GET /api/projects/:id/documents
func (h *RAGHandler) ListDocuments(c *gin.Context) {
	projectID, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	documents, err := h.store.ListDocuments(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": documents})
}

// DELETE /api/documents/:id
func (h *RAGHandler) DeleteDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	deleted, err := h.store.DeleteDocument(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// POST /api/rag/search
func (h *RAGHandler) Search(c *gin.Context) {
	var body struct {
		Query     string `json:"query"`
		ProjectID int64  `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if body.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	if body.ProjectID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}

	context, err := h.retriever.Search(body.Query, body.ProjectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"context":        context,
		"context_length": len(context),
		"has_results":    context != "",
	})
}

// GET /api/projects/:id/rag/stats
func (h *RAGHandler) Stats(c *gin.Context) {
	projectID, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	if _, err := h.store.GetProject(projectID); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.store.ProjectStats(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}
