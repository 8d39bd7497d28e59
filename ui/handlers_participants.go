package ui

import (
	"encoding/json"
	"net/http"

	"xaistudy/internal/session"
	"xaistudy/models"

	"github.com/gin-gonic/gin"
)

type eventRequest struct {
	UserID  string                 `json:"user_id"`
	Source  string                 `json:"source"`
	Action  string                 `json:"action"`
	Details map[string]interface{} `json:"details"`
}

type questionnaireRequest struct {
	UserID    string   `json:"user_id"`
	Name      string   `json:"questionnaire_name"`
	Questions []string `json:"questions"`
	Answers   []int    `json:"answers"`
}

type feedbackRequest struct {
	UserID   string `json:"user_id"`
	Feedback string `json:"feedback"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

type attentionCheckRequest struct {
	UserID  string          `json:"user_id"`
	CheckID string          `json:"check_id"`
	Data    json.RawMessage `json:"data"`
}

type testingResponseRequest struct {
	UserID         string `json:"user_id"`
	DatapointCount int    `json:"datapoint_count"`
	Response       string `json:"test_response"`
	TrueLabel      string `json:"true_label"`
	IsFinal        bool   `json:"final"`
}

// userIDOr falls back to the participant id from the request context
func userIDOr(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return session.UserID(c.Request.Context())
}

func (s *Server) handleLogEvent(c *gin.Context) {
	var req eventRequest
	if !s.bindJSON(c, &req) {
		return
	}
	err := s.deps.Participant.LogEvent(c.Request.Context(), userIDOr(c, req.UserID), req.Source, req.Action, req.Details)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSaveQuestionnaire(c *gin.Context) {
	var req questionnaireRequest
	if !s.bindJSON(c, &req) {
		return
	}
	summary, err := s.deps.Questionnaires.Save(c.Request.Context(), userIDOr(c, req.UserID), req.Name, req.Questions, req.Answers)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req feedbackRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.deps.Participant.LogFeedback(c.Request.Context(), userIDOr(c, req.UserID), req.Feedback); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleCompleted(c *gin.Context) {
	var req userRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.deps.Participant.Complete(c.Request.Context(), userIDOr(c, req.UserID)); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleTestingResponse(c *gin.Context) {
	var req testingResponseRequest
	if !s.bindJSON(c, &req) {
		return
	}
	entry := &models.TestingResponse{
		UserID:         userIDOr(c, req.UserID),
		DatapointCount: req.DatapointCount,
		Response:       req.Response,
		TrueLabel:      req.TrueLabel,
		IsFinal:        req.IsFinal,
	}
	if err := s.deps.Testing.Record(c.Request.Context(), entry); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleLogAttentionCheck(c *gin.Context) {
	var req attentionCheckRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.deps.Attention.LogCheck(c.Request.Context(), userIDOr(c, req.UserID), req.CheckID, req.Data); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAttentionStatus(c *gin.Context) {
	status, err := s.deps.Attention.Status(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleGetParticipant(c *gin.Context) {
	p, err := s.deps.Participant.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          p.ID,
		"study_group": p.StudyGroup.String,
		"completed":   p.Completed,
		"profile":     p.Profile,
		"created_at":  p.CreatedAt,
	})
}

func (s *Server) handleGetMatrikNum(c *gin.Context) {
	num, err := s.deps.Participant.MatrikNum(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matrikelnummer": num})
}

func (s *Server) handleDeleteMatrikNum(c *gin.Context) {
	if err := s.deps.Participant.ForgetMatrikNum(c.Request.Context(), c.Param("user_id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
