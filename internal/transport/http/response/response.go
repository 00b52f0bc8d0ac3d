package response

import "github.com/gin-gonic/gin"

// Message writes the portal's plain {"message": ...} envelope. Richer
// payloads are emitted directly by the handlers.
func Message(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{"message": message})
}
