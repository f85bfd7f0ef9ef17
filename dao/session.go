package dao

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mango-chat-backend/model"
)

const (
	// maxTitleLength is the prefix of the first user message used as the
	// session title.
	maxTitleLength = 50

	// defaultHistoryLimit caps how many sessions a visitor listing returns.
	defaultHistoryLimit = 20
)

// Store persists sessions, messages and feedback. It is constructed once in
// main and injected; retention windows are storage policy only and never
// consulted by request-path logic.
type Store struct {
	db *gorm.DB

	// RecencyWindow decides when GetOrCreateSessionForConversation reuses
	// the visitor's most recent session instead of creating a new one.
	RecencyWindow time.Duration

	now func() time.Time
}

func NewStore(db *gorm.DB, recencyWindow time.Duration) *Store {
	return &Store{
		db:            db,
		RecencyWindow: recencyWindow,
		now:           time.Now,
	}
}

func (s *Store) CreateSession(ctx context.Context, visitorID string) (*model.Session, error) {
	session := model.Session{
		SessionID: uuid.New().String(),
		VisitorID: visitorID,
		Title:     model.DefaultSessionTitle,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession returns nil, nil when the session does not exist or the stored
// row cannot be read; callers treat absence as not-found, never as a fault.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	var session model.Session
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

// AddMessage appends a message to the session and bumps the session's
// counters. The title is derived from the first user message recorded and is
// set exactly once.
func (s *Store) AddMessage(ctx context.Context, sessionID, role, content string, toolCalls []model.ToolCallRecord) (*model.Message, error) {
	msg := model.Message{
		MessageID: uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}

	if len(toolCalls) > 0 {
		raw, err := json.Marshal(toolCalls)
		if err != nil {
			return nil, err
		}
		msg.ToolCalls = raw
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		var session model.Session
		if err := tx.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Session metadata is best-effort; the message itself stands.
				return nil
			}
			return err
		}

		updates := map[string]any{
			"message_count": session.MessageCount + 1,
			"updated_at":    s.now(),
		}
		if session.MessageCount == 0 && role == "user" && content != "" {
			updates["title"] = deriveTitle(content)
		}

		return tx.Model(&model.Session{}).
			Where("session_id = ?", sessionID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	return &msg, nil
}

func deriveTitle(content string) string {
	content = strings.TrimSpace(content)
	if len(content) <= maxTitleLength {
		return content
	}
	return content[:maxTitleLength] + "..."
}

// GetMessage returns nil, nil when no message carries the id.
func (s *Store) GetMessage(ctx context.Context, messageID string) (*model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (s *Store) GetMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	var messages []model.Message
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// GetSessionHistory lists a visitor's sessions, most recently updated first.
func (s *Store) GetSessionHistory(ctx context.Context, visitorID string, limit int) ([]model.Session, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	var sessions []model.Session
	if err := s.db.WithContext(ctx).
		Where("visitor_id = ?", visitorID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetOrCreateSessionForConversation reuses the visitor's most recently
// updated session when it was touched within the recency window, otherwise
// creates a fresh one.
func (s *Store) GetOrCreateSessionForConversation(ctx context.Context, visitorID string) (*model.Session, error) {
	sessions, err := s.GetSessionHistory(ctx, visitorID, 1)
	if err != nil {
		return nil, err
	}

	if len(sessions) > 0 && s.now().Sub(sessions[0].UpdatedAt) < s.RecencyWindow {
		return &sessions[0], nil
	}

	return s.CreateSession(ctx, visitorID)
}

// DeleteSession removes the session and cascades to its message list.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).
			Delete(&model.Session{}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).
			Delete(&model.Message{}).Error
	})
}

// PruneExpired drops records past their retention window. Retention is a
// storage policy: nothing on the request path calls this.
func (s *Store) PruneExpired(ctx context.Context, sessionRetention, feedbackRetention time.Duration) error {
	now := s.now()

	var expired []model.Session
	if err := s.db.WithContext(ctx).
		Where("updated_at < ?", now.Add(-sessionRetention)).
		Find(&expired).Error; err != nil {
		return err
	}
	for _, session := range expired {
		if err := s.DeleteSession(ctx, session.SessionID); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).
		Where("created_at < ?", now.Add(-feedbackRetention)).
		Delete(&model.Feedback{}).Error
}
