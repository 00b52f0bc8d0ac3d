package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"powerbi-portal/internal/transport/http/response"
)

type DashboardHandler struct {
	embedURL string
}

func NewDashboardHandler(embedURL string) *DashboardHandler {
	return &DashboardHandler{embedURL: embedURL}
}

// EmbedURL hands the client the configured dashboard embed link. The portal
// never fetches or inspects the dashboard itself.
func (h *DashboardHandler) EmbedURL(c *gin.Context) {
	if h.embedURL == "" {
		response.Message(c, http.StatusInternalServerError, "Dashboard URL is not configured on the server.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.embedURL})
}
