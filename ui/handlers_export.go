package ui

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleExport(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.deps.Export.WriteWorkbook(c.Request.Context(), &buf); err != nil {
		s.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="participants.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
