package controller

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mango-chat-backend/dao"
	"mango-chat-backend/middleware"
	"mango-chat-backend/model"
	"mango-chat-backend/request"
	"mango-chat-backend/service/chat"
	"mango-chat-backend/utils"
)

// ChatController owns the streaming conversation endpoint.
type ChatController struct {
	store        *dao.Store
	orchestrator *chat.Orchestrator
	maxDuration  time.Duration
}

func NewChatController(store *dao.Store, orchestrator *chat.Orchestrator, maxDuration time.Duration) *ChatController {
	return &ChatController{
		store:        store,
		orchestrator: orchestrator,
		maxDuration:  maxDuration,
	}
}

// Chat runs one conversation turn and streams the answer over SSE. The
// session id is resolved before streaming starts and returned in the
// X-Session-Id header so the client can thread the follow-up turn.
func (ctl *ChatController) Chat(c *gin.Context) {
	visitorID := middleware.VisitorID(c)
	if visitorID == "" {
		abortWithError(c, ErrMissingVisitor)
		return
	}

	var req request.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, ErrInvalidRequest)
		return
	}

	lastUserText := lastUserMessage(req.Messages)
	if strings.TrimSpace(lastUserText) == "" {
		abortWithError(c, ErrEmptyMessage)
		return
	}

	session, err := ctl.resolveSession(c.Request.Context(), visitorID, &req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.Header("X-Session-Id", session.SessionID)

	// Persist the user turn before the model call so a mid-stream failure
	// still leaves the question in the history.
	if _, err := ctl.store.AddMessage(c.Request.Context(), session.SessionID, "user", lastUserText, nil); err != nil {
		abortWithError(c, err)
		return
	}

	utils.SetSSEHeaders(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.maxDuration)
	defer cancel()

	handler := chat.NewGinSSEHandler(c)
	run, err := ctl.orchestrator.Run(ctx, chat.BuildHistory(req.Messages), lastUserText, handler)
	if err != nil {
		slog.Error("Chat run failed", "session_id", session.SessionID, "err", err)
		utils.SendSSEMessage(c, utils.EventError, "Failed to generate a response. Please try again.")
		utils.SendSSEMessage(c, utils.EventDone, "")
		return
	}

	validation := chat.ValidateCitations(run.Text, run.ToolResults)
	chat.LogCitationWarnings(validation, session.SessionID)

	// The assistant turn is stored only once the stream has fully drained,
	// so history never contains a truncated answer.
	if _, err := ctl.store.AddMessage(ctx, session.SessionID, "assistant", run.Text, run.ToolCalls); err != nil {
		slog.Error("Failed to persist assistant message", "session_id", session.SessionID, "err", err)
	}

	utils.SendSSEMessage(c, utils.EventDone, "")
}

// resolveSession picks the session this turn belongs to: an explicit id must
// exist and belong to the caller, otherwise the recency window decides
// between reuse and a fresh session.
func (ctl *ChatController) resolveSession(ctx context.Context, visitorID string, req *request.ChatRequest) (*model.Session, error) {
	if req.SessionID != "" {
		session, err := ctl.store.GetSession(ctx, req.SessionID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrSessionNotFound
		}
		if session.VisitorID != visitorID {
			return nil, ErrNotSessionOwner
		}
		return session, nil
	}

	if req.ForceNewSession {
		return ctl.store.CreateSession(ctx, visitorID)
	}

	return ctl.store.GetOrCreateSessionForConversation(ctx, visitorID)
}

func lastUserMessage(messages []request.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
