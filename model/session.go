package model

import (
	"encoding/json"
	"time"
)

const DefaultSessionTitle = "New Chat"

// Session is one conversation thread owned by a single visitor.
type Session struct {
	ID           uint      `gorm:"primarykey" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`
	SessionID    string    `gorm:"not null;uniqueIndex" json:"session_id"`
	VisitorID    string    `gorm:"not null;index" json:"visitor_id"`
	Title        string    `json:"title"`
	MessageCount int       `gorm:"not null;default:0" json:"message_count"`
}

func (Session) TableName() string {
	return "chat_session"
}

// Message rows are append-only; composite index (session_id, created_at)
// serves the ordered history reads.
type Message struct {
	ID        uint            `gorm:"primarykey" json:"-"`
	CreatedAt time.Time       `gorm:"index:idx_session_created" json:"created_at"`
	UpdatedAt time.Time       `json:"-"`
	MessageID string          `gorm:"not null;uniqueIndex" json:"message_id"`
	SessionID string          `gorm:"not null;index:idx_session_created" json:"session_id"`
	Role      string          `gorm:"not null" json:"role"`
	Content   string          `gorm:"type:text" json:"content"`
	ToolCalls json.RawMessage `gorm:"type:json" json:"tool_calls,omitempty"`
}

func (Message) TableName() string {
	return "chat_message"
}

// ToolCallRecord is one tool invocation made by the model during an
// assistant turn, stored on the message in invocation order.
type ToolCallRecord struct {
	Name   string          `json:"name"`
	Args   json.RawMessage `json:"args"`
	Result any             `json:"result"`
}

type Rating string

const (
	RatingPositive Rating = "positive"
	RatingNegative Rating = "negative"
)

// Feedback is created at most once per (message, visitor); there is no
// update or delete path.
type Feedback struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
	VisitorID string    `gorm:"not null;index" json:"visitor_id"`
	SessionID string    `gorm:"not null" json:"session_id"`
	MessageID string    `gorm:"not null;index" json:"message_id"`
	Rating    Rating    `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
}

func (Feedback) TableName() string {
	return "chat_feedback"
}

// FeedbackStat is the global aggregate counter per rating value.
type FeedbackStat struct {
	Rating Rating `gorm:"primarykey" json:"rating"`
	Count  int64  `gorm:"not null;default:0" json:"count"`
}

func (FeedbackStat) TableName() string {
	return "chat_feedback_stats"
}
