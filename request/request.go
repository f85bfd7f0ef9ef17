package request

// ChatMessage is one role-tagged part of the running conversation as sent by
// the client.
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages        []ChatMessage `json:"messages" binding:"required"`
	SessionID       string        `json:"session_id"`
	ForceNewSession bool          `json:"force_new_session"`
}

type FeedbackRequest struct {
	MessageID string `json:"message_id" binding:"required"`
	SessionID string `json:"session_id" binding:"required"`
	Rating    string `json:"rating" binding:"required,oneof=positive negative"`
	Comment   string `json:"comment"`
}
