package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mango-chat-backend/dao"
	"mango-chat-backend/middleware"
	"mango-chat-backend/model"
	"mango-chat-backend/response"
)

// SessionController serves the visitor's conversation history. Every
// operation is scoped to the calling visitor; a session owned by someone
// else is indistinguishable in behavior from a forbidden one.
type SessionController struct {
	store       *dao.Store
	maxSessions int
}

func NewSessionController(store *dao.Store, maxSessions int) *SessionController {
	return &SessionController{
		store:       store,
		maxSessions: maxSessions,
	}
}

func (ctl *SessionController) GetSessions(c *gin.Context) {
	visitorID := middleware.VisitorID(c)
	if visitorID == "" {
		abortWithError(c, ErrMissingVisitor)
		return
	}

	sessions, err := ctl.store.GetSessionHistory(c.Request.Context(), visitorID, ctl.maxSessions)
	if err != nil {
		abortWithError(c, err)
		return
	}

	list := make([]response.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		list = append(list, toSessionResponse(&session))
	}

	c.JSON(http.StatusOK, response.Response{
		Success: true,
		Data:    response.GetSessionsResponse{Sessions: list},
	})
}

func (ctl *SessionController) CreateSession(c *gin.Context) {
	visitorID := middleware.VisitorID(c)
	if visitorID == "" {
		abortWithError(c, ErrMissingVisitor)
		return
	}

	session, err := ctl.store.CreateSession(c.Request.Context(), visitorID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Response{
		Success: true,
		Data:    toSessionResponse(session),
	})
}

func (ctl *SessionController) GetSessionMessages(c *gin.Context) {
	session, ok := ctl.ownedSession(c)
	if !ok {
		return
	}

	messages, err := ctl.store.GetMessages(c.Request.Context(), session.SessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	list := make([]response.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		list = append(list, response.MessageResponse{
			MessageID: msg.MessageID,
			CreatedAt: msg.CreatedAt,
			Role:      msg.Role,
			Content:   msg.Content,
			ToolCalls: msg.ToolCalls,
		})
	}

	c.JSON(http.StatusOK, response.Response{
		Success: true,
		Data: response.GetSessionMessagesResponse{
			Session:  toSessionResponse(session),
			Messages: list,
		},
	})
}

func (ctl *SessionController) DeleteSession(c *gin.Context) {
	session, ok := ctl.ownedSession(c)
	if !ok {
		return
	}

	if err := ctl.store.DeleteSession(c.Request.Context(), session.SessionID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Response{Success: true})
}

// ownedSession loads the session named in the route and enforces ownership,
// writing the error response itself when the check fails.
func (ctl *SessionController) ownedSession(c *gin.Context) (*model.Session, bool) {
	visitorID := middleware.VisitorID(c)
	if visitorID == "" {
		abortWithError(c, ErrMissingVisitor)
		return nil, false
	}

	session, err := ctl.store.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	if session == nil {
		abortWithError(c, ErrSessionNotFound)
		return nil, false
	}
	if session.VisitorID != visitorID {
		abortWithError(c, ErrNotSessionOwner)
		return nil, false
	}

	return session, true
}

func toSessionResponse(session *model.Session) response.SessionResponse {
	return response.SessionResponse{
		SessionID:    session.SessionID,
		Title:        session.Title,
		MessageCount: session.MessageCount,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
	}
}
