package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"krakengpt/config"
	"krakengpt/internal/adapter/embedding"
	"krakengpt/internal/adapter/provider"
	"krakengpt/internal/adapter/store"
	"krakengpt/internal/domain"
	"krakengpt/internal/logger"
	"krakengpt/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newCompletionEngine wires the completions endpoint against a local
// upstream. An empty endpoint leaves every provider unconfigured.
func newCompletionEngine(t *testing.T, localEndpoint string) (*gin.Engine, *store.BoltStore) {
	t.Helper()

	st, err := store.NewBoltStore(filepath.Join(t.TempDir(), "handlers.db"), 8)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	log := logger.NewNop()
	client := &http.Client{Timeout: 5 * time.Second}

	cloud := provider.NewCloud(config.CloudConfig{}, client)
	aggregator := provider.NewAggregator(config.AggregatorConfig{}, client)
	local := provider.NewLocal(config.LocalConfig{Endpoint: localEndpoint}, client)
	router := provider.NewRouter(log, "local", cloud, aggregator, local)

	retriever := usecase.NewRetriever(st, embedding.NewLocalEmbedder(8), log, 5, 0.05)
	chatlog := usecase.NewChatLog(st)

	engine := gin.New()
	h := NewCompletionHandler(router, retriever, chatlog, log)
	engine.POST("/v1/chat/completions", h.Complete)
	return engine, st
}

func postCompletion(t *testing.T, engine *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCompletionsRejectsEmptyMessages(t *testing.T) {
	engine, _ := newCompletionEngine(t, "http://localhost:1")

	rec := postCompletion(t, engine, map[string]interface{}{"messages": []interface{}{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCompletionsUnknownProvider(t *testing.T) {
	engine, _ := newCompletionEngine(t, "http://localhost:1")

	rec := postCompletion(t, engine, map[string]interface{}{
		"messages": []map[string]string{{"role": "user", "content": "ciao"}},
		"provider": "mystery",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCompletionsNoProviderConfigured(t *testing.T) {
	engine, _ := newCompletionEngine(t, "")

	rec := postCompletion(t, engine, map[string]interface{}{
		"messages": []map[string]string{{"role": "user", "content": "ciao"}},
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "no generation provider") {
		t.Errorf("error body should name the missing configuration: %s", rec.Body.String())
	}
}

func TestCompletionsWholeResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []domain.Message `json:"messages"`
			Stream   bool             `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("upstream got undecodable body: %v", err)
		}
		if req.Stream {
			t.Error("non-streaming request arrived with stream=true")
		}
		if len(req.Messages) == 0 || req.Messages[0].Role != domain.RoleSystem {
			t.Errorf("expected synthesized system message first, got %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "cmpl-1",
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"role":    "assistant",
					"content": "imposta API_KEY nel tuo ambiente",
				}},
			},
		})
	}))
	defer upstream.Close()

	engine, st := newCompletionEngine(t, upstream.URL)

	chatID, err := st.CreateChat(nil, "supporto", nil, "")
	if err != nil {
		t.Fatal(err)
	}

	rec := postCompletion(t, engine, map[string]interface{}{
		"messages": []map[string]string{{"role": "user", "content": "come configuro?"}},
		"chat_id":  chatID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID      string `json:"id"`
		Choices []struct {
			Message domain.Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "cmpl-1" {
		t.Errorf("upstream fields must be preserved, got id %q", resp.ID)
	}
	if want := "imposta `API_KEY` nel tuo ambiente"; resp.Choices[0].Message.Content != want {
		t.Errorf("content not enhanced: got %q, want %q", resp.Choices[0].Message.Content, want)
	}

	chat, err := st.GetChat(chatID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chat.Messages) != 2 {
		t.Fatalf("expected user + assistant recorded, got %+v", chat.Messages)
	}
	if chat.Messages[0].Role != domain.RoleUser || chat.Messages[1].Role != domain.RoleAssistant {
		t.Errorf("exchange recorded out of order: %+v", chat.Messages)
	}
	if chat.Messages[1].Content != "imposta `API_KEY` nel tuo ambiente" {
		t.Errorf("recorded assistant message not enhanced: %q", chat.Messages[1].Content)
	}
}

func TestCompletionsStreaming(t *testing.T) {
	sse := "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\" there\"}}]}\n\n" +
		"data: [DONE]\n\n"

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Stream bool `json:"stream"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("streaming request arrived with stream=false")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(sse))
	}))
	defer upstream.Close()

	engine, st := newCompletionEngine(t, upstream.URL)

	chatID, err := st.CreateChat(nil, "streaming", nil, "")
	if err != nil {
		t.Fatal(err)
	}

	rec := postCompletion(t, engine, map[string]interface{}{
		"messages": []map[string]string{{"role": "user", "content": "saluta"}},
		"stream":   true,
		"chat_id":  chatID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != sse {
		t.Errorf("relayed stream differs from upstream:\ngot:  %q\nwant: %q", rec.Body.String(), sse)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("unexpected content type %q", ct)
	}

	chat, err := st.GetChat(chatID)
	if err != nil {
		t.Fatal(err)
	}
	if len(chat.Messages) != 2 {
		t.Fatalf("expected user + assistant recorded, got %+v", chat.Messages)
	}
	if chat.Messages[1].Content != "Hi there" {
		t.Errorf("transcript = %q, want %q", chat.Messages[1].Content, "Hi there")
	}
}

func TestCompletionsStreamingUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	engine, _ := newCompletionEngine(t, upstream.URL)

	rec := postCompletion(t, engine, map[string]interface{}{
		"messages": []map[string]string{{"role": "user", "content": "saluta"}},
		"stream":   true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("error events ride a 200 SSE response, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "data: {\"error\":") {
		t.Errorf("expected a single synthetic error event, got %q", body)
	}
	if strings.Count(body, "data: ") != 1 {
		t.Errorf("expected exactly one event, got %q", body)
	}
}
