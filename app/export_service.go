package app

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"xaistudy/adapters/excel"
	"xaistudy/internal/errors"
	"xaistudy/ports"
)

var (
	participantHeaders = []string{"id", "study_group", "completed", "prolific_id", "created_at", "profile", "questionnaires", "feedback"}
	eventHeaders       = []string{"id", "user_id", "source", "action", "details", "created_at"}
)

// ExportService writes the collected study data as a spreadsheet
type ExportService struct {
	participants ports.ParticipantRepository
	events       ports.EventRepository
}

// NewExportService creates an export service
func NewExportService(participants ports.ParticipantRepository, events ports.EventRepository) *ExportService {
	return &ExportService{participants: participants, events: events}
}

// WriteWorkbook writes a Participants and an Events sheet to w. Matriculation numbers are
// left out.
func (s *ExportService) WriteWorkbook(ctx context.Context, w io.Writer) error {
	participants, err := s.participants.ListParticipants(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list participants")
	}
	events, err := s.events.ListEvents(ctx, "")
	if err != nil {
		return errors.Wrap(err, "failed to list events")
	}

	pSheet := excel.Sheet{Name: "Participants", Headers: participantHeaders}
	for _, p := range participants {
		pSheet.Rows = append(pSheet.Rows, []string{
			p.ID,
			p.StudyGroup.String,
			strconv.FormatBool(p.Completed),
			p.ProlificID.String,
			formatTime(p.CreatedAt),
			jsonCell(p.Profile),
			jsonCell(p.Questionnaires),
			jsonCell(p.Feedback),
		})
	}

	eSheet := excel.Sheet{Name: "Events", Headers: eventHeaders}
	for _, e := range events {
		eSheet.Rows = append(eSheet.Rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.UserID,
			e.Source,
			e.Action,
			jsonCell(e.Details),
			formatTime(e.CreatedAt),
		})
	}

	if err := excel.WriteWorkbook(w, pSheet, eSheet); err != nil {
		return errors.Wrap(err, "failed to write export")
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func jsonCell(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(raw)
}
