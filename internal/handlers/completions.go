package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"krakengpt/internal/adapter/provider"
	"krakengpt/internal/domain"
	"krakengpt/internal/logger"
	"krakengpt/internal/port"
	"krakengpt/internal/usecase"
)

const (
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

type CompletionHandler struct {
	router    *provider.Router
	retriever *usecase.Retriever
	chatlog   *usecase.ChatLog
	log       *logger.Logger
}

func NewCompletionHandler(router *provider.Router, retriever *usecase.Retriever, chatlog *usecase.ChatLog, log *logger.Logger) *CompletionHandler {
	return &CompletionHandler{
		router:    router,
		retriever: retriever,
		chatlog:   chatlog,
		log:       log.With("handler", "completions"),
	}
}

type completionRequest struct {
	Model       string           `json:"model"`
	Messages    []domain.Message `json:"messages"`
	MaxTokens   *int             `json:"max_tokens"`
	Temperature *float64         `json:"temperature"`
	Stream      bool             `json:"stream"`
	Provider    string           `json:"provider"`
	ChatID      *int64           `json:"chat_id"`
	ProjectID   *int64           `json:"project_id"`
}

// POST /v1/chat/completions
func (h *CompletionHandler) Complete(c *gin.Context) {
	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
		return
	}

	userMessage := usecase.LatestUserMessage(req.Messages)

	// Retrieval failures degrade to an uncontextualized completion rather
	// than failing the request.
	context := ""
	if req.ProjectID != nil && userMessage != "" {
		found, err := h.retriever.Search(userMessage, *req.ProjectID)
		if err != nil {
			h.log.Warn("retrieval failed, continuing without context",
				"project_id", *req.ProjectID, "error", err.Error())
		} else {
			context = found
		}
	}

	selected, err := h.router.Select(req.Provider)
	if err != nil {
		if errors.Is(err, provider.ErrUnknownProvider) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no generation provider is configured"})
		return
	}

	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	upstream := port.CompletionRequest{
		Model:       req.Model,
		Messages:    usecase.AssembleMessages(usecase.BaseInstructions, context, req.Messages),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	if req.Stream {
		h.streamCompletion(c, selected, upstream, req.ChatID, userMessage)
		return
	}
	h.wholeCompletion(c, selected, upstream, req.ChatID, userMessage)
}

func (h *CompletionHandler) wholeCompletion(c *gin.Context, selected port.Provider, upstream port.CompletionRequest, chatID *int64, userMessage string) {
	result, served, err := h.router.Complete(c.Request.Context(), selected, upstream)
	if err != nil {
		var httpErr *provider.HTTPError
		if errors.As(err, &httpErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	enhanced := usecase.EnhanceMarkdown(result.Message.Content)

	if chatID != nil {
		exchange := make([]domain.Message, 0, 2)
		if userMessage != "" {
			exchange = append(exchange, domain.Message{Role: domain.RoleUser, Content: userMessage})
		}
		exchange = append(exchange, domain.Message{Role: domain.RoleAssistant, Content: enhanced})
		if err := h.chatlog.Append(*chatID, exchange...); err != nil {
			h.log.Warn("failed to record exchange", "chat_id", *chatID, "error", err.Error())
		}
	}

	h.log.Info("completion served", "provider", served.Name(), "stream", false)
	c.Header("X-Provider", served.Name())
	c.Data(http.StatusOK, "application/json", rewriteContent(result.Raw, enhanced))
}

func (h *CompletionHandler) streamCompletion(c *gin.Context, selected port.Provider, upstream port.CompletionRequest, chatID *int64, userMessage string) {
	// The user turn is recorded before the relay starts; the assistant turn
	// follows only after upstream EOF.
	if chatID != nil && userMessage != "" {
		if err := h.chatlog.Append(*chatID, domain.Message{Role: domain.RoleUser, Content: userMessage}); err != nil {
			h.log.Warn("failed to record user message", "chat_id", *chatID, "error", err.Error())
		}
	}

	upstream.Stream = true

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	body, served, err := h.router.Stream(c.Request.Context(), selected, upstream)
	if err != nil {
		h.log.Error("streaming dispatch failed", "provider", selected.Name(), "error", err.Error())
		c.Status(http.StatusOK)
		c.Writer.WriteString(usecase.ErrorEvent(err.Error()))
		c.Writer.Flush()
		return
	}
	defer body.Close()

	c.Header("X-Provider", served.Name())
	c.Status(http.StatusOK)

	relay := usecase.NewStreamRelay()
	if err := relay.Copy(flushWriter{c.Writer}, body); err != nil {
		h.log.Warn("relay interrupted", "provider", served.Name(), "error", err.Error())
	}

	if chatID != nil && relay.Transcript() != "" {
		if err := h.chatlog.Append(*chatID, domain.Message{Role: domain.RoleAssistant, Content: relay.Transcript()}); err != nil {
			h.log.Warn("failed to record transcript", "chat_id", *chatID, "error", err.Error())
		}
	}
	h.log.Info("completion served", "provider", served.Name(), "stream", true)
}

// flushWriter pushes every relayed chunk to the client immediately.
type flushWriter struct {
	w gin.ResponseWriter
}

func (f flushWriter) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	if err == nil {
		f.w.Flush()
	}
	return n, err
}

// rewriteContent replaces choices[0].message.content in the raw upstream
// body with the enhanced text, leaving everything else untouched. On any
// shape mismatch the raw body is returned as received.
func rewriteContent(raw json.RawMessage, enhanced string) []byte {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return raw
	}
	choices, ok := payload["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return raw
	}
	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return raw
	}
	message, ok := choice["message"].(map[string]interface{})
	if !ok {
		return raw
	}
	message["content"] = enhanced

	out, err := json.Marshal(payload)
	if err != nil {
		return raw
	}
	return out
}
