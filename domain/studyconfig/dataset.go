// Package studyconfig holds the static study texts: per-dataset task descriptions and the
// per-arm final questionnaires.
package studyconfig

// DatasetConfig is the text bundle the task screens show for one dataset
type DatasetConfig struct {
	Name string `json:"name"`

	// Experiment datapoint screen
	IntroTestDescription         string `json:"intro_test_description"`
	IntroTestDescriptionBaseline string `json:"intro_test_description_baseline"`
	PredictionQuestion           string `json:"prediction_question"`

	// Chat screen
	ChatSuggestions []string `json:"chat_suggestions"`

	// Intro-done popup
	UnderstandingQuestion         string `json:"understanding_question"`
	UnderstandingQuestionBaseline string `json:"understanding_question_baseline"`
}

// Dataset keys with a bundle of their own
const (
	DatasetAdult    = "adult"
	DatasetDiabetes = "diabetes"
)

const predictionQuestion = "What will the model predict for the current case?"

var adultDatasetConfig = DatasetConfig{
	Name: DatasetAdult,
	IntroTestDescription: renderInline("The table shows a **description of a person**.\n" +
		"**Task**: Guess if the current person is earning **more or less than 50k$** a year.\n" +
		"**Note**: You will not see the model prediction and explanations in the Introduction Phase."),
	IntroTestDescriptionBaseline: renderInline("The table shows a **description of a person**.\n" +
		"**Task**: Guess if the current person is earning **more or less than 50k$** a year.\n" +
		"**Note**: You will see the model prediction after making your guess in the Introduction Phase."),
	PredictionQuestion: predictionQuestion,
	ChatSuggestions: []string{
		"Explain this prediction to me",
		"Why under 50k?",
		"Why over 50k?",
		"Why do you think so?",
		"What factors matter the most in how the model makes its decision?",
		"Which features play the strongest role in influencing the model's prediction?",
		"What factors have very little effect on the model's decision?",
		"Which features contribute the least to the model's prediction?",
		"How much does each feature influence the prediction for this person?",
		"How strong is the effect of each factor on this person's outcome?",
		"What features would have to change to get a different prediction?",
		"What would need to be different for this person to get the opposite prediction?",
		"How confident is the model in this prediction?",
		"How certain is the model about this person's outcome?",
	},
	UnderstandingQuestion:         "I have a good understanding of which factors most influence the income of an individual.",
	UnderstandingQuestionBaseline: "I am confident in predicting what the model will decide about an individual's income.",
}

var diabetesDatasetConfig = DatasetConfig{
	Name: DatasetDiabetes,
	IntroTestDescription: renderInline("The table shows a **person's medical information**.\n" +
		"**Task**: Guess if the current person **has diabetes** or not.\n" +
		"**Note**: You will not see the model prediction and explanations in the Introduction Phase."),
	IntroTestDescriptionBaseline: renderInline("The table shows a **person's medical information**.\n" +
		"**Task**: Guess if the current person **has diabetes** or not.\n" +
		"**Note**: You will see the model prediction after making your guess in the Introduction Phase."),
	PredictionQuestion: predictionQuestion,
	ChatSuggestions: []string{
		"Explain this prediction to me",
		"Why diabetes?",
		"Why no diabetes?",
		"Why do you think so?",
		"What factors matter the most in how the model makes its decision?",
		"Which medical factors play the strongest role in influencing the model's prediction?",
		"What factors have very little effect on the model's decision?",
		"Which medical indicators contribute the least to the model's prediction?",
		"How much does each medical factor influence the prediction for this person?",
		"How strong is the effect of each factor on this person's diabetes risk?",
		"What medical factors would have to change to get a different prediction?",
		"What would need to be different for this person to get the opposite prediction?",
		"How confident is the model in this prediction?",
		"How certain is the model about this person's diabetes risk?",
	},
	UnderstandingQuestion:         "I have a good understanding of which factors most influence the diabetes risk of an individual.",
	UnderstandingQuestionBaseline: "I am confident in predicting what the model will decide about an individual's diabetes risk.",
}

// Dataset returns the text bundle for a dataset key. german_credit, sf_crime and any key
// without a bundle of its own get the adult bundle.
func Dataset(key string) DatasetConfig {
	cfg := adultDatasetConfig
	if key == DatasetDiabetes {
		cfg = diabetesDatasetConfig
	}
	cfg.ChatSuggestions = append([]string(nil), cfg.ChatSuggestions...)
	return cfg
}
