package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/planetland/backend/imagestore"
)

func statusFor(err error) int {
	switch {
	case imagestore.IsValidation(err):
		return http.StatusBadRequest
	case imagestore.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure envelope. Only the client-safe message
// leaves the process; storage causes are logged.
func (s *Server) respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("%s failed: %v", op, err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": imagestore.PublicMessage(err),
	})
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
