package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"krakengpt/internal/adapter/store"
	"krakengpt/internal/domain"
	"krakengpt/internal/logger"
)

func newChatEngine(t *testing.T) (*gin.Engine, *store.BoltStore) {
	t.Helper()

	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "chats.db"), 8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	h := NewChatHandler(st, logger.NewNop())
	engine := gin.New()
	engine.POST("/api/chats", h.Create)
	engine.GET("/api/chats/:id", h.Get)
	engine.PUT("/api/chats/:id", h.Update)
	engine.DELETE("/api/chats/:id", h.Delete)
	return engine, st
}

func TestChatCreateAndGet(t *testing.T) {
	engine, _ := newChatEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/api/chats", gin.H{
		"title":    "supporto",
		"messages": []map[string]string{{"role": "user", "content": "ciao"}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Chat
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == 0 || created.Title != "supporto" || len(created.Messages) != 1 {
		t.Errorf("unexpected chat: %+v", created)
	}

	rec = doJSON(t, engine, http.MethodGet, "/api/chats/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	// Chats can reference a project only when it exists.
	missing := int64(99)
	rec = doJSON(t, engine, http.MethodPost, "/api/chats", gin.H{
		"title":      "orfana",
		"project_id": missing,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing project, got %d", rec.Code)
	}
}

func TestChatUpdate(t *testing.T) {
	engine, _ := newChatEngine(t)

	doJSON(t, engine, http.MethodPost, "/api/chats", gin.H{"title": "supporto"})

	rec := doJSON(t, engine, http.MethodPut, "/api/chats/1", gin.H{"title": "rinominata"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var updated domain.Chat
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.Title != "rinominata" {
		t.Errorf("title not updated: %+v", updated)
	}

	rec = doJSON(t, engine, http.MethodPut, "/api/chats/1", gin.H{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty patch, got %d", rec.Code)
	}
}

func TestChatUpdateMissing(t *testing.T) {
	engine, _ := newChatEngine(t)

	rec := doJSON(t, engine, http.MethodPut, "/api/chats/99", gin.H{"title": "x"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing chat, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChatDelete(t *testing.T) {
	engine, _ := newChatEngine(t)

	doJSON(t, engine, http.MethodPost, "/api/chats", gin.H{"title": "supporto"})

	rec := doJSON(t, engine, http.MethodDelete, "/api/chats/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, engine, http.MethodDelete, "/api/chats/1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rec.Code)
	}
}
