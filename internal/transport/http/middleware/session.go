package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"powerbi-portal/internal/session"
	"powerbi-portal/internal/transport/http/response"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// AuthSession gates protected routes. It resolves the session cookie and
// either attaches the user identity to the request context or rejects the
// request before any handler logic runs.
func AuthSession(sessions *session.Manager, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, err := c.Cookie(cookieName)
		if err != nil {
			reject(c)
			return
		}

		record, err := sessions.Resolve(c.Request.Context(), cookie)
		if err != nil || record == nil {
			reject(c)
			return
		}

		c.Set(ContextUserIDKey, record.UserID)
		c.Set(ContextUsernameKey, record.Username)
		c.Next()
	}
}

func reject(c *gin.Context) {
	response.Message(c, http.StatusUnauthorized, "Unauthorized. Please log in.")
	c.Abort()
}
