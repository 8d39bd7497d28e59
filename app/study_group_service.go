package app

import (
	"context"
	"strings"

	"xaistudy/internal"
	"xaistudy/internal/config"
	"xaistudy/internal/metrics"
	"xaistudy/models"
	"xaistudy/ports"

	"golang.org/x/sync/errgroup"
)

// SelectionAlternate balances new participants between the static and interactive arms
const SelectionAlternate = "alternate"

// StudyGroupService decides which arm a new participant joins
type StudyGroupService struct {
	participants ports.ParticipantRepository
	selection    string
	groupName    string
	metrics      *metrics.Metrics
	logger       *internal.Logger
}

// NewStudyGroupService creates a study group service for the configured selection mode
func NewStudyGroupService(participants ports.ParticipantRepository, cfg config.StudyConfig, m *metrics.Metrics, logger *internal.Logger) *StudyGroupService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &StudyGroupService{
		participants: participants,
		selection:    strings.TrimSpace(cfg.ABSelection),
		groupName:    strings.TrimSpace(cfg.GroupName),
		metrics:      m,
		logger:       logger.WithField("component", "study_group"),
	}
}

// StudyGroup returns the arm the next participant would join without handing it out. It
// never fails: when the selection mode is unset or the completed counts cannot be read, the
// chat arm is used.
func (s *StudyGroupService) StudyGroup(ctx context.Context) string {
	group, _ := s.selectGroup(ctx)
	return group
}

// StudyGroupName returns the label stored with the profile for the arm the next participant
// would join
func (s *StudyGroupService) StudyGroupName(ctx context.Context) string {
	if s.groupName != "" {
		return s.groupName
	}
	return s.StudyGroup(ctx)
}

// NameFor returns the label stored with the profile of a participant in group: the
// configured study group name when set, otherwise the arm itself
func (s *StudyGroupService) NameFor(group string) string {
	if s.groupName != "" {
		return s.groupName
	}
	return group
}

// Assign decides the arm for a new participant once and counts the assignment
func (s *StudyGroupService) Assign(ctx context.Context) (group, name string) {
	group, fallback := s.selectGroup(ctx)
	s.metrics.GroupAssigned(group, fallback)
	return group, s.NameFor(group)
}

// selectGroup reports the arm and whether the chat fallback was used
func (s *StudyGroupService) selectGroup(ctx context.Context) (string, bool) {
	switch s.selection {
	case "", "undefined", "null":
		return models.StudyGroupChat, true
	case SelectionAlternate:
	default:
		return s.selection, false
	}

	staticCount, interactiveCount, err := s.completedCounts(ctx)
	if err != nil {
		s.logger.Error("[StudyGroup] counting completed participants failed, falling back to %q: %v", models.StudyGroupChat, err)
		return models.StudyGroupChat, true
	}

	group := Balance(staticCount, interactiveCount)
	s.logger.Debug("[StudyGroup] static=%d interactive=%d -> %s", staticCount, interactiveCount, group)
	return group, false
}

func (s *StudyGroupService) completedCounts(ctx context.Context) (staticCount, interactiveCount int, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.participants.CountCompleted(gctx, models.StudyGroupStatic)
		staticCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.participants.CountCompleted(gctx, models.StudyGroupInteractive)
		interactiveCount = n
		return err
	})
	err = g.Wait()
	return staticCount, interactiveCount, err
}

// Balance picks the arm with fewer completed participants; a tie goes to interactive
func Balance(staticCount, interactiveCount int) string {
	if interactiveCount <= staticCount {
		return models.StudyGroupInteractive
	}
	return models.StudyGroupStatic
}
