package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"powerbi-portal/internal/app"
	"powerbi-portal/internal/transport/http/middleware"
	"powerbi-portal/internal/transport/http/response"
)

type FeedbackHandler struct {
	feedbackService *app.FeedbackService
}

// Field presence is deliberately not enforced; the portal accepts partial
// feedback forms.
type FeedbackRequest struct {
	FeedbackType string `json:"feedbackType"`
	Subject      string `json:"subject"`
	Details      string `json:"details"`
}

func NewFeedbackHandler(feedbackService *app.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	userID, username, ok := identityFromContext(c)
	if !ok {
		response.Message(c, http.StatusUnauthorized, "Unauthorized. Please log in.")
		return
	}

	var req FeedbackRequest
	_ = c.ShouldBindJSON(&req)

	_, err := h.feedbackService.Submit(c.Request.Context(), app.SubmitFeedbackInput{
		UserID:       userID,
		Username:     username,
		FeedbackType: req.FeedbackType,
		Subject:      req.Subject,
		Details:      req.Details,
	})
	if err != nil {
		response.Message(c, http.StatusInternalServerError, "Error submitting feedback.")
		return
	}

	response.Message(c, http.StatusCreated, "Feedback submitted successfully! Thank you.")
}

func identityFromContext(c *gin.Context) (uint, string, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, "", false
	}
	userID, ok := userIDAny.(uint)
	if !ok || userID == 0 {
		return 0, "", false
	}
	username, _ := c.Get(middleware.ContextUsernameKey)
	name, _ := username.(string)
	return userID, name, true
}
