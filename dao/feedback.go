package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mango-chat-backend/model"
)

// SaveFeedback records one feedback submission and bumps the global
// per-rating counter.
func (s *Store) SaveFeedback(ctx context.Context, feedback *model.Feedback) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(feedback).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "rating"}},
			DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("count + 1")}),
		}).Create(&model.FeedbackStat{
			Rating: feedback.Rating,
			Count:  1,
		}).Error
	})
}

func (s *Store) GetFeedbackStats(ctx context.Context) ([]model.FeedbackStat, error) {
	var stats []model.FeedbackStat
	if err := s.db.WithContext(ctx).Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
