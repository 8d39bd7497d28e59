package container

import (
	"context"
	"fmt"

	"xaistudy/adapters/backend"
	"xaistudy/adapters/postgres"
	"xaistudy/app"
	"xaistudy/internal"
	"xaistudy/internal/config"
	"xaistudy/internal/metrics"
	"xaistudy/ports"
	"xaistudy/ui"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB      *sqlx.DB
	Metrics *metrics.Metrics
	Backend *backend.Client

	// Repositories (data access layer)
	Participants ports.ParticipantRepository
	Events       ports.EventRepository
	Completions  ports.CompletionRepository

	// Services
	StudyGroups    *app.StudyGroupService
	Setup          *app.SetupService
	Participant    *app.ParticipantService
	Questionnaires *app.QuestionnaireService
	Attention      *app.AttentionService
	Testing        *app.TestingResponseService
	Export         *app.ExportService
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	return &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}, nil
}

// InitWithDatabase initializes components that require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}
	c.DB = db

	c.initRepositories()
	c.initServices()

	c.Logger.Info("[Container] initialized with database connection")
	return nil
}

// initRepositories initializes data access repositories
func (c *Container) initRepositories() {
	c.Participants = postgres.NewParticipantRepository(c.DB)
	c.Events = postgres.NewEventRepository(c.DB)
	c.Completions = postgres.NewCompletionRepository(c.DB)
}

func (c *Container) initServices() {
	c.Backend = backend.NewClient(backend.Config{
		BaseURL: c.Config.Backend.BaseURL,
		Metrics: c.Metrics,
		Logger:  c.Logger,
	})

	c.StudyGroups = app.NewStudyGroupService(c.Participants, c.Config.Study, c.Metrics, c.Logger)
	c.Setup = app.NewSetupService(c.Participants, c.Completions, c.StudyGroups, c.Logger)
	c.Participant = app.NewParticipantService(c.Participants, c.Events, c.Completions, c.Logger)
	c.Questionnaires = app.NewQuestionnaireService(c.Participants, c.Events, c.Logger)
	c.Attention = app.NewAttentionService(c.Completions, c.Config.Study.ComprehensionCheckID)
	c.Testing = app.NewTestingResponseService(c.Events, c.Backend, c.Logger)
	c.Export = app.NewExportService(c.Participants, c.Events)
}

// ServerDependencies returns what the HTTP server needs
func (c *Container) ServerDependencies() ui.Dependencies {
	return ui.Dependencies{
		Participants:   c.Participants,
		Setup:          c.Setup,
		StudyGroups:    c.StudyGroups,
		Participant:    c.Participant,
		Questionnaires: c.Questionnaires,
		Attention:      c.Attention,
		Testing:        c.Testing,
		Export:         c.Export,
		Backend:        c.Backend,
		Metrics:        c.Metrics,
		Logger:         c.Logger,
	}
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
