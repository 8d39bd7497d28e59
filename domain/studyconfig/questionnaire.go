package studyconfig

import "xaistudy/models"

// AttentionCheck locates the attention item embedded in a questionnaire
type AttentionCheck struct {
	QuestionIndex int    `json:"question_index"`
	CorrectAnswer string `json:"correct_answer"`
	CheckID       string `json:"check_id"`
}

// QuestionnaireConfig is the final questionnaire shown to one study arm
type QuestionnaireConfig struct {
	Arm            string          `json:"arm"`
	Questions      []string        `json:"questions"`
	AttentionCheck *AttentionCheck `json:"attention_check,omitempty"`
	Title          string          `json:"title"`
	Subtitle       string          `json:"subtitle"`
}

var doneTitle = renderInline("You are done **with the tasks**. **Thank you!**")

var chatQuestionnaireConfig = QuestionnaireConfig{
	Arm: models.StudyGroupChat,
	Questions: []string{
		"The chatbot is cooperative.",
		"I like the chatbot.",
		"While explaining, the chatbot met me halfway.",
		"The chatbot has no clue of what it is doing.",
		"The chatbot intended to provide me with the opportunity to build an understanding of the topic by asking questions.",
		"The chatbot encouraged me to continuously think about further details of the topic.",
		"The chatbot always gives good advice.",
		"The chatbot can collaborate in a productive way.",
		"The chatbot considered my understanding.",
		"The chatbot acts truthfully.",
		"The chatbots appears confused.",
		"While explaining, it was important for the chatbot to monitor whether I understood everything.",
		"The chatbot responded when I signaled non-understanding.",
		"The chatbot took my statements into account.",
		"The chatbot acts intentionally",
		"I can see myself using the chatbot in the future.",
		"When finishing to read this sentence, select Strongly Disagree to prove that you pay attention.",
		"While explaining, it was important for the chatbot to continuously consider whether I understood the explanation.",
		"The chatbot encouraged me to visualize the different processes of the topic.",
		"I can rely on the chatbot.",
		"The chatbot is easy to use.",
		"The explanation was meant to encourage me to question my understanding.",
		"The chatbot carefully adapted its utterances to my responses.",
	},
	AttentionCheck: &AttentionCheck{
		QuestionIndex: 16,
		CorrectAnswer: "-2",
		CheckID:       "4",
	},
	Title:    doneTitle,
	Subtitle: renderInline("Lastly, we are interested in **how you liked to work with the Chatbot** to understand the models decisions."),
}

var staticQuestionnaireConfig = QuestionnaireConfig{
	Arm: models.StudyGroupStatic,
	Questions: []string{
		"The explanation report is coherent.",
		"I find the explanation report useful.",
		"The explanation report is clear and understandable.",
		"The explanation report provides insightful information.",
		"The explanation report supports productive insights.",
		"The information in the report is presented accurately.",
		"The explanation report seems confusing.",
		"The explanation report is engaging.",
		"I pay attention. Select -1 to prove it.",
		"The explanation report presents information purposefully.",
		"I can see myself referring to this type of explanation report in the future.",
		"I can rely on the information provided in the explanation report.",
		"The explanation report is easy to navigate and understand.",
	},
	AttentionCheck: &AttentionCheck{
		QuestionIndex: 8,
		CorrectAnswer: "-1",
		CheckID:       "4",
	},
	Title:    doneTitle,
	Subtitle: renderInline("Lastly, we are interested in **how you liked to work with the explanation report** to understand the models decisions."),
}

// Questionnaire returns the final questionnaire for a study arm. Every arm except "static"
// gets the chatbot questionnaire. The dataset does not change the questionnaire yet.
func Questionnaire(dataset, studyGroup string) QuestionnaireConfig {
	cfg := chatQuestionnaireConfig
	if studyGroup == models.StudyGroupStatic {
		cfg = staticQuestionnaireConfig
	}
	cfg.Questions = append([]string(nil), cfg.Questions...)
	if cfg.AttentionCheck != nil {
		check := *cfg.AttentionCheck
		cfg.AttentionCheck = &check
	}
	return cfg
}
