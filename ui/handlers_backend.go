package ui

import (
	"context"
	"encoding/json"
	"net/http"

	"xaistudy/adapters/backend"
	"xaistudy/internal/session"
	"xaistudy/ui/middleware"

	"github.com/gin-gonic/gin"
)

type sessionCall func(*backend.Session, context.Context) (*http.Response, error)

// proxiedGETs are the backend operations relayed without a request body
var proxiedGETs = map[string]sessionCall{
	"get_user_correctness":     (*backend.Session).GetUserCorrectness,
	"get_proceeding_okay":      (*backend.Session).GetProceedingOkay,
	"get_train_datapoint":      (*backend.Session).GetTrainDatapoint,
	"get_test_datapoint":       (*backend.Session).GetTestDatapoint,
	"get_final_test_datapoint": (*backend.Session).GetFinalTestDatapoint,
	"get_intro_test_datapoint": (*backend.Session).GetIntroTestDatapoint,
	"get_production_datapoint": (*backend.Session).GetProductionDatapoint,
	"get_testing_questions":    (*backend.Session).GetTestingQuestions,
}

type questionSelectionRequest struct {
	Question string `json:"question"`
	Feature  string `json:"feature"`
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

type predictionRequest struct {
	Prediction     string `json:"user_prediction" binding:"required"`
	DatapointCount *int   `json:"datapoint_count"`
}

// addBackendRoutes relays the per-participant experiment backend operations under
// /api/xai/:user_id. study_group and kgs_id are taken from the query.
func (s *Server) addBackendRoutes(api *gin.RouterGroup) {
	if s.deps.Backend == nil {
		return
	}
	xai := api.Group("/xai/:user_id")
	{
		xai.GET("/init", middleware.LoadDemographics(s.deps.Participants, s.logger), s.handleBackendInit)
		xai.DELETE("/finish", s.relay((*backend.Session).Finish))
		for op, call := range proxiedGETs {
			xai.GET("/"+op, s.relay(call))
		}
		xai.POST("/get_response_clicked", s.handleQuestionSelection)
		xai.POST("/get_response_nl", s.handleUserMessage)
		xai.POST("/get_response_nl_stream", s.handleUserMessageStream)
		xai.POST("/set_user_prediction", s.handleSetUserPrediction)
	}
}

func (s *Server) backendSession(c *gin.Context) *backend.Session {
	return s.deps.Backend.ForSession(session.UserID(c.Request.Context()), c.Query("study_group"), c.Query("kgs_id"))
}

// relay returns a handler forwarding the backend's answer unchanged
func (s *Server) relay(call sessionCall) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := call(s.backendSession(c), c.Request.Context())
		s.forward(c, resp, err)
	}
}

func (s *Server) forward(c *gin.Context, resp *http.Response, err error) {
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer resp.Body.Close()
	c.DataFromReader(resp.StatusCode, resp.ContentLength, resp.Header.Get("Content-Type"), resp.Body, nil)
}

// handleBackendInit starts the experiment. ml_knowledge comes from the query or, when
// absent, from the stored profile.
func (s *Server) handleBackendInit(c *gin.Context) {
	sess := s.backendSession(c)
	knowledge := c.Query("ml_knowledge")
	if knowledge == "" {
		if d, ok := session.Demographics(c.Request.Context()); ok {
			knowledge = d.MLKnowledge
		}
	}
	if knowledge != "" {
		sess = sess.WithMLKnowledge(knowledge)
	}
	resp, err := sess.Init(c.Request.Context())
	s.forward(c, resp, err)
}

func (s *Server) handleQuestionSelection(c *gin.Context) {
	var req questionSelectionRequest
	if !s.bindJSON(c, &req) {
		return
	}
	resp, err := s.backendSession(c).GetQuestionSelectionResponse(c.Request.Context(), req.Question, req.Feature)
	s.forward(c, resp, err)
}

func (s *Server) handleUserMessage(c *gin.Context) {
	var req messageRequest
	if !s.bindJSON(c, &req) {
		return
	}
	resp, err := s.backendSession(c).GetUserMessageResponse(c.Request.Context(), req.Message)
	s.forward(c, resp, err)
}

func (s *Server) handleSetUserPrediction(c *gin.Context) {
	var req predictionRequest
	if !s.bindJSON(c, &req) {
		return
	}
	count := -1
	if req.DatapointCount != nil {
		count = *req.DatapointCount
	}
	resp, err := s.backendSession(c).SetUserPrediction(c.Request.Context(), req.Prediction, count)
	s.forward(c, resp, err)
}

// handleUserMessageStream relays the streamed chat answer as server-sent "message" events
// followed by one "done" event. Headers are sent with the first chunk, so a backend that
// fails before streaming still gets a JSON error response.
func (s *Server) handleUserMessageStream(c *gin.Context) {
	var req messageRequest
	if !s.bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Status(http.StatusOK)
	}

	err := s.backendSession(c).StreamUserMessageResponse(ctx, req.Message, func(chunk json.RawMessage) error {
		start()
		c.SSEvent("message", string(chunk))
		c.Writer.Flush()
		return ctx.Err()
	})
	if err != nil && !started {
		s.respondError(c, err)
		return
	}
	start()
	if err != nil {
		s.logger.Warn("[Stream] chat stream for %s ended early: %v", session.UserID(ctx), err)
		c.SSEvent("error", `{"error":"stream interrupted"}`)
	} else {
		c.SSEvent("done", "{}")
	}
	c.Writer.Flush()
}
