package ui

import (
	"net/http"

	"xaistudy/app"
	"xaistudy/internal/session"

	"github.com/gin-gonic/gin"
)

// handleSetup registers a participant. It answers with a plain "ok".
func (s *Server) handleSetup(c *gin.Context) {
	var req app.SetupRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = session.UserID(c.Request.Context())
	}

	if err := s.deps.Setup.Setup(c.Request.Context(), req); err != nil {
		s.respondError(c, err)
		return
	}
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleStudyGroup(c *gin.Context) {
	group, name := s.deps.StudyGroups.Assign(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"study_group":      group,
		"study_group_name": name,
	})
}

func (s *Server) handleNewSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user_id": app.NewUserID()})
}
