package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mango-chat-backend/dao"
	"mango-chat-backend/middleware"
	"mango-chat-backend/model"
)

func newTestStore(t *testing.T) *dao.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:controller_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := dao.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dao.NewStore(db, 90*time.Second)
}

// asVisitor injects the identity the visitor middleware would have resolved.
func asVisitor(visitorID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextVisitorID, visitorID)
		c.Next()
	}
}

func feedbackRouter(store *dao.Store, visitorID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asVisitor(visitorID))
	r.POST("/api/feedback", NewFeedbackController(store).SubmitFeedback)
	return r
}

func postFeedback(t *testing.T, r *gin.Engine, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedSessionWithMessage(t *testing.T, store *dao.Store, visitorID string) (sessionID, messageID string) {
	t.Helper()
	ctx := context.Background()

	session, err := store.CreateSession(ctx, visitorID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	msg, err := store.AddMessage(ctx, session.SessionID, "assistant", "Mangoes peak in November.", nil)
	if err != nil {
		t.Fatalf("add message: %v", err)
	}
	return session.SessionID, msg.MessageID
}

func TestSubmitFeedback_OK(t *testing.T) {
	store := newTestStore(t)
	sessionID, messageID := seedSessionWithMessage(t, store, "visitor-1")
	r := feedbackRouter(store, "visitor-1")

	w := postFeedback(t, r, map[string]any{
		"message_id": messageID,
		"session_id": sessionID,
		"rating":     "positive",
		"comment":    "clear and well sourced",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stats, err := store.GetFeedbackStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 1 || stats[0].Rating != model.RatingPositive || stats[0].Count != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestSubmitFeedback_WrongVisitor(t *testing.T) {
	store := newTestStore(t)
	sessionID, messageID := seedSessionWithMessage(t, store, "visitor-1")
	r := feedbackRouter(store, "visitor-2")

	w := postFeedback(t, r, map[string]any{
		"message_id": messageID,
		"session_id": sessionID,
		"rating":     "negative",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign session, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmitFeedback_MissingSession(t *testing.T) {
	store := newTestStore(t)
	r := feedbackRouter(store, "visitor-1")

	w := postFeedback(t, r, map[string]any{
		"message_id": "message-1",
		"session_id": "no-such-session",
		"rating":     "positive",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing session, got %d", w.Code)
	}
}

func TestSubmitFeedback_MissingMessage(t *testing.T) {
	store := newTestStore(t)
	sessionID, _ := seedSessionWithMessage(t, store, "visitor-1")
	r := feedbackRouter(store, "visitor-1")

	w := postFeedback(t, r, map[string]any{
		"message_id": "no-such-message",
		"session_id": sessionID,
		"rating":     "positive",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing message, got %d", w.Code)
	}
}

func TestSubmitFeedback_MessageFromOtherSession(t *testing.T) {
	store := newTestStore(t)
	sessionID, _ := seedSessionWithMessage(t, store, "visitor-1")
	_, otherMessageID := seedSessionWithMessage(t, store, "visitor-1")
	r := feedbackRouter(store, "visitor-1")

	w := postFeedback(t, r, map[string]any{
		"message_id": otherMessageID,
		"session_id": sessionID,
		"rating":     "positive",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for message outside the session, got %d", w.Code)
	}
}

func TestSubmitFeedback_InvalidRating(t *testing.T) {
	store := newTestStore(t)
	sessionID, messageID := seedSessionWithMessage(t, store, "visitor-1")
	r := feedbackRouter(store, "visitor-1")

	w := postFeedback(t, r, map[string]any{
		"message_id": messageID,
		"session_id": sessionID,
		"rating":     "meh",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid rating, got %d", w.Code)
	}
}
