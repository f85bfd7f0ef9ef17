package router

import (
	"github.com/gin-gonic/gin"

	"mango-chat-backend/config"
	"mango-chat-backend/controller"
	"mango-chat-backend/middleware"
)

// Register wires the HTTP surface. Visitor resolution covers every route;
// the rate limit applies only to the model-backed chat endpoint.
func Register(
	cfg *config.Config,
	chatCtl *controller.ChatController,
	sessionCtl *controller.SessionController,
	feedbackCtl *controller.FeedbackController,
	limiter *middleware.RateLimiter,
) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	r.Use(middleware.Visitor(cfg.Server.GinMode == "release"))

	api := r.Group("/api")
	{
		api.POST("/chat", limiter.Handler(), chatCtl.Chat)

		api.GET("/history", sessionCtl.GetSessions)
		api.POST("/history", sessionCtl.CreateSession)
		api.GET("/history/:id", sessionCtl.GetSessionMessages)
		api.DELETE("/history/:id", sessionCtl.DeleteSession)

		api.POST("/feedback", feedbackCtl.SubmitFeedback)
	}

	return r
}
