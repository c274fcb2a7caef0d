package app

import (
	"testing"

	"quizdesk/internal/domain"
)

func TestScore(t *testing.T) {
	questions := []domain.Question{
		{ID: 1, CorrectOption: "B"},
		{ID: 2, CorrectOption: "C"},
		{ID: 3, CorrectOption: "A"},
	}
	cases := []struct {
		name    string
		answers Answers
		want    int
	}{
		{"all correct", Answers{1: "B", 2: "C", 3: "A"}, 12},
		{"all wrong", Answers{1: "A", 2: "A", 3: "B"}, -3},
		{"none answered", Answers{}, 0},
		{"empty strings count as unanswered", Answers{1: "", 2: "", 3: ""}, 0},
		{"mixed", Answers{1: "B", 2: "A"}, 3},
		{"case sensitive", Answers{1: "b"}, -1},
		{"unknown question ignored", Answers{42: "A"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, details := Score(questions, tc.answers)
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
			if len(details) != len(questions) {
				t.Fatalf("expected a detail per question, got %d", len(details))
			}
			if got < -len(questions) || got > domain.PointsCorrect*len(questions) {
				t.Fatalf("score %d outside bounds", got)
			}
		})
	}
}

func TestScoreDetails(t *testing.T) {
	questions := []domain.Question{{ID: 7, CorrectOption: "D"}, {ID: 8, CorrectOption: "A"}}
	_, details := Score(questions, Answers{7: "C"})

	if details[0].QuestionID != 7 || details[0].Chosen == nil || *details[0].Chosen != "C" || details[0].Correct != "D" {
		t.Fatalf("unexpected first detail %+v", details[0])
	}
	if details[1].Chosen != nil {
		t.Fatalf("expected unanswered question to have nil choice")
	}
}
