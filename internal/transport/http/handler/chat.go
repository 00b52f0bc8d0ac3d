package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"powerbi-portal/internal/app"
	"powerbi-portal/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatRequest struct {
	Message string `json:"message"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Send proxies one message to the assistant. Upstream trouble degrades to a
// fixed apology string so the widget always has something to render.
func (h *ChatHandler) Send(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Message(c, http.StatusBadRequest, "Message is required.")
		return
	}

	reply, err := h.chatService.Send(c.Request.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMessageEmpty):
			response.Message(c, http.StatusBadRequest, "Message is required.")
		case errors.Is(err, app.ErrChatNotConfigured):
			c.JSON(http.StatusInternalServerError, gin.H{
				"reply": "API key is not configured on the server.",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"reply": "Sorry, I'm having trouble connecting right now.",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
