package model

import "time"

// Feedback rows are insert-only; the portal never updates or lists them.
type Feedback struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	FeedbackType string    `gorm:"size:64" json:"feedback_type"`
	Subject      string    `gorm:"size:255" json:"subject"`
	Details      string    `gorm:"type:text" json:"details"`
	CreatedAt    time.Time `json:"created_at"`
}
