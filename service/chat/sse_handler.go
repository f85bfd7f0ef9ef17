package chat

import (
	"context"

	"github.com/gin-gonic/gin"

	"mango-chat-backend/model"
	"mango-chat-backend/utils"
)

// GinSSEHandler forwards orchestrator output to the client over SSE. Tool
// results are pushed the moment they arrive, so the client sees them before
// the text referencing them finishes streaming.
type GinSSEHandler struct {
	Ctx *gin.Context
}

var _ StreamHandler = &GinSSEHandler{}

func NewGinSSEHandler(c *gin.Context) *GinSSEHandler {
	return &GinSSEHandler{Ctx: c}
}

func (h *GinSSEHandler) HandleTextChunk(ctx context.Context, chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	utils.SendSSEMessage(h.Ctx, utils.EventFinalAnswer, string(chunk))
}

func (h *GinSSEHandler) HandleToolResult(ctx context.Context, record model.ToolCallRecord) {
	utils.SendSSEMessage(h.Ctx, utils.EventToolCallResult, record)
}
