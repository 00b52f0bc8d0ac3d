package repository

import (
	"fmt"

	"gorm.io/gorm"

	"powerbi-portal/internal/model"
)

type FeedbackRepository struct {
	db *gorm.DB
}

func NewFeedbackRepository(db *gorm.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(feedback *model.Feedback) error {
	if err := r.db.Create(feedback).Error; err != nil {
		return fmt.Errorf("create feedback failed: %w", err)
	}
	return nil
}
