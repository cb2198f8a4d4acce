package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"krakengpt/internal/domain"
	"krakengpt/internal/logger"
	"krakengpt/internal/port"
)

type ChatHandler struct {
	store port.Store
	log   *logger.Logger
}

func NewChatHandler(store port.Store, log *logger.Logger) *ChatHandler {
	return &ChatHandler{store: store, log: log.With("handler", "chats")}
}

// POST /api/chats
func (h *ChatHandler) Create(c *gin.Context) {
	var body struct {
		ProjectID *int64           `json:"project_id"`
		Title     string           `json:"title"`
		Messages  []domain.Message `json:"messages"`
		Context   string           `json:"context"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.store.CreateChat(body.ProjectID, body.Title, body.Messages, body.Context)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.store.GetChat(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, chat)
}

// GET /api/projects/:id/chats
func (h *ChatHandler) ListByProject(c *gin.Context) {
	projectID, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	chats, err := h.store.ChatsByProject(projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GET /api/chats/:id
func (h *ChatHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	chat, err := h.store.GetChat(id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// PUT /api/chats/:id
func (h *ChatHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var body struct {
		Title    *string           `json:"title"`
		Messages *[]domain.Message `json:"messages"`
		Context  *string           `json:"context"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	patch := domain.ChatPatch{}
	if body.Title != nil {
		patch.Title, patch.HasTitle = *body.Title, true
	}
	if body.Messages != nil {
		patch.Messages, patch.HasMessages = *body.Messages, true
	}
	if body.Context != nil {
		patch.Context, patch.HasContext = *body.Context, true
	}
	if patch.Empty() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	updated, err := h.store.UpdateChat(id, patch)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// A non-empty patch that updated nothing means the record is absent.
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}

	chat, err := h.store.GetChat(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// DELETE /api/chats/:id
func (h *ChatHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	deleted, err := h.store.DeleteChat(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
