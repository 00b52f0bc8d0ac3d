package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"powerbi-portal/internal/model"
)

// FeedbackStore is the slice of the feedback repository the service needs.
type FeedbackStore interface {
	Create(feedback *model.Feedback) error
}

type FeedbackService struct {
	feedback FeedbackStore
	audit    AuditPublisher
	log      zerolog.Logger
}

type SubmitFeedbackInput struct {
	UserID       uint
	Username     string
	FeedbackType string
	Subject      string
	Details      string
}

func NewFeedbackService(feedback FeedbackStore, audit AuditPublisher, logger zerolog.Logger) *FeedbackService {
	return &FeedbackService{
		feedback: feedback,
		audit:    audit,
		log:      logger,
	}
}

// Submit inserts a feedback row owned by the authenticated user. The fields
// themselves are free-form and may be empty.
func (s *FeedbackService) Submit(ctx context.Context, input SubmitFeedbackInput) (*model.Feedback, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}

	feedback := &model.Feedback{
		UserID:       input.UserID,
		FeedbackType: input.FeedbackType,
		Subject:      input.Subject,
		Details:      input.Details,
	}
	if err := s.feedback.Create(feedback); err != nil {
		return nil, err
	}

	if s.audit != nil {
		event := model.AuditEvent{
			UserID:    input.UserID,
			Username:  input.Username,
			Action:    "feedback",
			Detail:    input.Subject,
			CreatedAt: time.Now(),
		}
		if err := s.audit.Publish(ctx, event); err != nil {
			s.log.Warn().Err(err).Msg("publish audit event failed")
		}
	}
	return feedback, nil
}
