package models

import (
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Study arms. "chat" is the arm used whenever balanced assignment is not possible.
const (
	StudyGroupStatic      = "static"
	StudyGroupInteractive = "interactive"
	StudyGroupChat        = "chat"
)

// Participant is one row of the users table
type Participant struct {
	ID             string         `json:"id" db:"id"`
	Profile        JSONBMap       `json:"profile" db:"profile"`
	StudyGroup     sql.NullString `json:"-" db:"study_group"`
	Questionnaires JSONBMap       `json:"questionnaires" db:"questionnaires"`
	Feedback       FeedbackLog    `json:"feedback" db:"feedback"`
	Completed      bool           `json:"completed" db:"completed"`
	MatrikNum      sql.NullString `json:"-" db:"matrik_num"`
	ProlificID     sql.NullString `json:"-" db:"prolific_id"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// Demographics are the profile fields the study flow itself reads
type Demographics struct {
	Age         int    `json:"age,omitempty"`
	Gender      string `json:"gender,omitempty"`
	MLKnowledge string `json:"ml_knowledge,omitempty"`
	Education   string `json:"education,omitempty"`
}

// QuestionnaireAnswers is stored under the questionnaire name in users.questionnaires
type QuestionnaireAnswers struct {
	Questions []string `json:"questions"`
	Answers   []int    `json:"answers"`
}

// FeedbackEntry is appended to users.feedback
type FeedbackEntry struct {
	Timestamp string `json:"timestamp"`
	Feedback  string `json:"feedback"`
}

// Event is one append-only row of the events table
type Event struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Source    string    `json:"source" db:"source"`
	Action    string    `json:"action" db:"action"`
	Details   JSONBMap  `json:"details" db:"details"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TestingResponse is one prediction made during the testing phase
type TestingResponse struct {
	UserID         string `db:"user_id"`
	DatapointCount int    `db:"datapoint_count"`
	Response       string `db:"test_response"`
	Timestamp      string `db:"timestamp"`
	TrueLabel      string `db:"true_label"`
	IsFinal        bool   `db:"is_final"`
}

// DemographicsFromProfile reads the known demographic fields from a stored profile.
// Missing or mistyped fields stay empty; age may be stored as a number or a string.
func DemographicsFromProfile(profile JSONBMap) Demographics {
	var d Demographics
	d.Gender, _ = profile["gender"].(string)
	d.MLKnowledge, _ = profile["ml_knowledge"].(string)
	d.Education, _ = profile["education"].(string)
	switch age := profile["age"].(type) {
	case float64:
		d.Age = int(age)
	case int:
		d.Age = age
	case string:
		d.Age, _ = strconv.Atoi(strings.TrimSpace(age))
	}
	return d
}
