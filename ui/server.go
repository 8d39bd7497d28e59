package ui

import (
	"net/http"

	"xaistudy/adapters/backend"
	"xaistudy/app"
	"xaistudy/internal"
	"xaistudy/internal/metrics"
	"xaistudy/ports"
	"xaistudy/ui/middleware"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the HTTP layer calls into
type Dependencies struct {
	Participants   ports.ParticipantRepository
	Setup          *app.SetupService
	StudyGroups    *app.StudyGroupService
	Participant    *app.ParticipantService
	Questionnaires *app.QuestionnaireService
	Attention      *app.AttentionService
	Testing        *app.TestingResponseService
	Export         *app.ExportService
	Backend        *backend.Client
	Metrics        *metrics.Metrics
	Logger         *internal.Logger
}

// Server represents the HTTP server of the study platform
type Server struct {
	router *gin.Engine
	deps   Dependencies
	logger *internal.Logger
}

// NewServer creates a server with all middleware and routes registered
func NewServer(deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router: gin.New(),
		deps:   deps,
		logger: logger.WithField("component", "http"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests and custom http.Server setups
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the web server
func (s *Server) Start(addr string) error {
	s.logger.Info("[Server] listening on %s", addr)
	return s.router.Run(addr)
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery())
	if s.deps.Metrics != nil {
		s.router.Use(s.deps.Metrics.GinMiddleware())
	}
	s.router.Use(middleware.ParticipantContext())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}

	api := s.router.Group("/api")
	{
		api.POST("/setup", s.handleSetup)
		api.GET("/study-group", s.handleStudyGroup)
		api.GET("/session/new", s.handleNewSession)

		api.POST("/events", s.handleLogEvent)
		api.POST("/questionnaires", s.handleSaveQuestionnaire)
		api.POST("/feedback", s.handleFeedback)
		api.POST("/completed", s.handleCompleted)
		api.POST("/testing-responses", s.handleTestingResponse)

		api.POST("/attention-checks", s.handleLogAttentionCheck)
		api.GET("/attention-checks/:user_id", s.handleAttentionStatus)

		api.GET("/participants/:user_id", s.handleGetParticipant)
		api.GET("/participants/:user_id/matrikelnummer", s.handleGetMatrikNum)
		api.DELETE("/participants/:user_id/matrikelnummer", s.handleDeleteMatrikNum)

		api.GET("/config/dataset/:name", s.handleDatasetConfig)
		api.GET("/config/questionnaire", s.handleQuestionnaireConfig)

		api.GET("/export/participants.xlsx", s.handleExport)
	}

	s.addBackendRoutes(api)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
