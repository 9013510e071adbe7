package engine

import (
	"github.com/prepstack/mockexam-backend/internal/model"
)

// Shared fixtures for the engine tests.

func intPtr(v int) *int         { return &v }
func floatPtr(v float64) *float64 { return &v }

func singleChoiceQ(id string, correct int) model.Question {
	return model.Question{
		ID:                 id,
		Kind:               model.QuestionKindSingleChoice,
		Prompt:             "prompt " + id,
		Options:            []string{"A", "B", "C", "D"},
		CorrectOptionIndex: intPtr(correct),
	}
}

func numericQ(id string, correct float64) model.Question {
	return model.Question{
		ID:           id,
		Kind:         model.QuestionKindNumericEntry,
		Prompt:       "prompt " + id,
		CorrectValue: floatPtr(correct),
	}
}

// twoSectionDefinition: section s1 has two standalone questions plus a
// two-question group; section s2 has a single numeric question.
func twoSectionDefinition() *model.AssessmentDefinition {
	return &model.AssessmentDefinition{
		ID:    "mock-001",
		Title: "Mock Test 1",
		Sections: []model.Section{
			{
				ID:                    "s1",
				Category:              model.SectionCategoryQuantitative,
				Title:                 "Quantitative",
				DurationSeconds:       60,
				StandaloneQuestionIDs: []string{"q1", "q2"},
				QuestionGroupIDs:      []string{"g1"},
			},
			{
				ID:                    "s2",
				Category:              model.SectionCategoryReasoning,
				Title:                 "Reasoning",
				DurationSeconds:       30,
				StandaloneQuestionIDs: []string{"q5"},
			},
		},
		Questions: []model.Question{
			singleChoiceQ("q1", 2),
			singleChoiceQ("q2", 0),
			numericQ("q5", 18),
		},
		Groups: []model.QuestionGroup{
			{
				ID:            "g1",
				CommonContent: "Shared passage",
				SubQuestions: []model.Question{
					singleChoiceQ("q3", 1),
					numericQ("q4", 2.5),
				},
			},
		},
	}
}

// singleSectionDefinition: one section, one single-choice question with
// correct option 2 and a 5 second clock.
func singleSectionDefinition() *model.AssessmentDefinition {
	return &model.AssessmentDefinition{
		ID:    "mock-mini",
		Title: "Mini Mock",
		Sections: []model.Section{
			{
				ID:                    "only",
				Category:              model.SectionCategoryVerbal,
				Title:                 "Verbal",
				DurationSeconds:       5,
				StandaloneQuestionIDs: []string{"q1"},
			},
		},
		Questions: []model.Question{singleChoiceQ("q1", 2)},
	}
}

func mustCompile(def *model.AssessmentDefinition) *Plan {
	plan, err := Compile(def)
	if err != nil {
		panic(err)
	}
	return plan
}
