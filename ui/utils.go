package ui

import (
	"net/http"

	"xaistudy/internal/errors"

	"github.com/gin-gonic/gin"
)

// respondError writes err as a JSON error. Server-side failures are logged and reported
// without their details.
func (s *Server) respondError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[%s %s] %v", c.Request.Method, c.FullPath(), err)
		if status == http.StatusBadGateway {
			c.JSON(status, gin.H{"error": "experiment backend unavailable"})
			return
		}
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindJSON decodes the request body, answering 400 when it is malformed
func (s *Server) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
