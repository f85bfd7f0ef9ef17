package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms"

	"mango-chat-backend/dao"
	"mango-chat-backend/service/chat"
	"mango-chat-backend/service/tools"
)

// scriptedModel answers every step with the same text, streaming it when a
// streaming func is set.
type scriptedModel struct {
	text string
	err  error
}

func (m *scriptedModel) GenerateContent(ctx context.Context, _ []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.err != nil {
		return nil, m.err
	}

	var opts llms.CallOptions
	for _, opt := range options {
		opt(&opts)
	}
	if opts.StreamingFunc != nil {
		if err := opts.StreamingFunc(ctx, []byte(m.text)); err != nil {
			return nil, err
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.text}}}, nil
}

func (m *scriptedModel) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func chatRouter(store *dao.Store, llm llms.Model, visitorID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asVisitor(visitorID))

	orchestrator := chat.NewOrchestrator(llm, tools.NewRegistry(), 5)
	r.POST("/api/chat", NewChatController(store, orchestrator, 10*time.Second).Chat)
	return r
}

func postChat(t *testing.T, r *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChat_StreamsAndPersists(t *testing.T) {
	store := newTestStore(t)
	r := chatRouter(store, &scriptedModel{text: "Palmer is low in fiber."}, "visitor-1")

	w := postChat(t, r, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "tell me about palmer"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	sessionID := w.Header().Get("X-Session-Id")
	if sessionID == "" {
		t.Fatalf("response must carry X-Session-Id")
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("expected SSE content type, got %q", ct)
	}

	body := w.Body.String()
	if !strings.Contains(body, "event:final_answer") {
		t.Fatalf("stream missing final_answer event: %s", body)
	}
	if !strings.Contains(body, "Palmer is low in fiber.") {
		t.Fatalf("stream missing answer text: %s", body)
	}
	if !strings.Contains(body, "event:done") {
		t.Fatalf("stream missing done event: %s", body)
	}

	messages, err := store.GetMessages(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected user + assistant persisted, got %d", len(messages))
	}
	if messages[0].Role != "user" || messages[1].Role != "assistant" {
		t.Fatalf("unexpected roles %q, %q", messages[0].Role, messages[1].Role)
	}
	if messages[1].Content != "Palmer is low in fiber." {
		t.Fatalf("assistant content mismatch: %q", messages[1].Content)
	}

	session, err := store.GetSession(context.Background(), sessionID)
	if err != nil || session == nil {
		t.Fatalf("session should exist, err %v", err)
	}
	if session.Title != "tell me about palmer" {
		t.Fatalf("title should derive from the question, got %q", session.Title)
	}
}

func TestChat_ModelFailureStreamsError(t *testing.T) {
	store := newTestStore(t)
	r := chatRouter(store, &scriptedModel{err: errors.New("provider down")}, "visitor-1")

	w := postChat(t, r, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hello"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("stream errors arrive as events, got status %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "event:error") || !strings.Contains(body, "event:done") {
		t.Fatalf("expected error and done events, got: %s", body)
	}

	// The user turn is persisted even when generation fails.
	sessionID := w.Header().Get("X-Session-Id")
	messages, err := store.GetMessages(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(messages) != 1 || messages[0].Role != "user" {
		t.Fatalf("expected only the user message, got %+v", messages)
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	store := newTestStore(t)
	r := chatRouter(store, &scriptedModel{text: "x"}, "visitor-1")

	w := postChat(t, r, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "   "}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", w.Code)
	}
}

func TestChat_ForeignSession(t *testing.T) {
	store := newTestStore(t)
	sessionID, _ := seedSessionWithMessage(t, store, "visitor-1")
	r := chatRouter(store, &scriptedModel{text: "x"}, "visitor-2")

	w := postChat(t, r, map[string]any{
		"messages":   []map[string]string{{"role": "user", "content": "hi"}},
		"session_id": sessionID,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign session, got %d", w.Code)
	}
}

func TestChat_UnknownSession(t *testing.T) {
	store := newTestStore(t)
	r := chatRouter(store, &scriptedModel{text: "x"}, "visitor-1")

	w := postChat(t, r, map[string]any{
		"messages":   []map[string]string{{"role": "user", "content": "hi"}},
		"session_id": "no-such-session",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", w.Code)
	}
}

func TestChat_ContinuesExplicitSession(t *testing.T) {
	store := newTestStore(t)
	sessionID, _ := seedSessionWithMessage(t, store, "visitor-1")
	r := chatRouter(store, &scriptedModel{text: "more mango facts"}, "visitor-1")

	w := postChat(t, r, map[string]any{
		"messages":   []map[string]string{{"role": "user", "content": "and the season?"}},
		"session_id": sessionID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Session-Id"); got != sessionID {
		t.Fatalf("expected the explicit session to be continued, got %q", got)
	}
}
