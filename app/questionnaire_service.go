package app

import (
	"context"

	"xaistudy/internal"
	"xaistudy/internal/errors"
	"xaistudy/ports"

	"github.com/montanaflynn/stats"
)

// QuestionnaireSummary describes the Likert answers of one saved questionnaire
type QuestionnaireSummary struct {
	Name    string  `json:"name"`
	Answers int     `json:"answers"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"stddev"`
}

// QuestionnaireService stores questionnaire answers
type QuestionnaireService struct {
	participants ports.ParticipantRepository
	events       ports.EventRepository
	logger       *internal.Logger
}

// NewQuestionnaireService creates a questionnaire service
func NewQuestionnaireService(participants ports.ParticipantRepository, events ports.EventRepository, logger *internal.Logger) *QuestionnaireService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &QuestionnaireService{
		participants: participants,
		events:       events,
		logger:       logger.WithField("component", "questionnaire"),
	}
}

// Save merges the answers into the participant's questionnaires and logs a
// questionnaire_saved event with their summary. An earlier questionnaire of the same name is
// replaced. A failed event write is logged only.
func (s *QuestionnaireService) Save(ctx context.Context, userID, name string, questions []string, answers []int) (*QuestionnaireSummary, error) {
	if userID == "" {
		return nil, errors.ValidationError("user_id is required")
	}
	if len(questions) != len(answers) {
		return nil, errors.ValidationError("questions and answers must have the same length")
	}
	if name == "" {
		name = "exit"
	}

	if err := s.participants.SaveQuestionnaireAnswers(ctx, userID, name, questions, answers); err != nil {
		return nil, errors.Wrap(err, "failed to save questionnaire")
	}

	summary := Summarize(name, answers)
	details := map[string]interface{}{
		"name":    summary.Name,
		"answers": summary.Answers,
		"mean":    summary.Mean,
		"median":  summary.Median,
		"stddev":  summary.StdDev,
	}
	if err := s.events.LogEvent(ctx, userID, "questionnaire", "questionnaire_saved", details); err != nil {
		s.logger.Warn("[Questionnaire] failed to log questionnaire_saved for %s: %v", userID, err)
	}
	return summary, nil
}

// Summarize computes mean, median and population standard deviation of the answers.
// All three are zero when there are no answers.
func Summarize(name string, answers []int) *QuestionnaireSummary {
	summary := &QuestionnaireSummary{Name: name, Answers: len(answers)}
	if len(answers) == 0 {
		return summary
	}
	data := stats.LoadRawData(answers)
	summary.Mean, _ = stats.Mean(data)
	summary.Median, _ = stats.Median(data)
	summary.StdDev, _ = stats.StandardDeviationPopulation(data)
	return summary
}
