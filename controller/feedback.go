package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mango-chat-backend/dao"
	"mango-chat-backend/middleware"
	"mango-chat-backend/model"
	"mango-chat-backend/request"
	"mango-chat-backend/response"
)

type FeedbackController struct {
	store *dao.Store
}

func NewFeedbackController(store *dao.Store) *FeedbackController {
	return &FeedbackController{store: store}
}

// SubmitFeedback records a rating on one assistant message. The session must
// belong to the caller and the message must exist inside that session.
func (ctl *FeedbackController) SubmitFeedback(c *gin.Context) {
	visitorID := middleware.VisitorID(c)
	if visitorID == "" {
		abortWithError(c, ErrMissingVisitor)
		return
	}

	var req request.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, ErrInvalidRequest)
		return
	}

	session, err := ctl.store.GetSession(c.Request.Context(), req.SessionID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if session == nil {
		abortWithError(c, ErrSessionNotFound)
		return
	}
	if session.VisitorID != visitorID {
		abortWithError(c, ErrNotSessionOwner)
		return
	}

	msg, err := ctl.store.GetMessage(c.Request.Context(), req.MessageID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if msg == nil || msg.SessionID != session.SessionID {
		abortWithError(c, ErrMessageNotFound)
		return
	}

	feedback := model.Feedback{
		VisitorID: visitorID,
		SessionID: req.SessionID,
		MessageID: req.MessageID,
		Rating:    model.Rating(req.Rating),
		Comment:   req.Comment,
	}
	if err := ctl.store.SaveFeedback(c.Request.Context(), &feedback); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Response{Success: true})
}
