package ui

import (
	"net/http"

	"xaistudy/domain/studyconfig"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleDatasetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, studyconfig.Dataset(c.Param("name")))
}

func (s *Server) handleQuestionnaireConfig(c *gin.Context) {
	c.JSON(http.StatusOK, studyconfig.Questionnaire(c.Query("dataset"), c.Query("study_group")))
}
