package app

import "quizdesk/internal/domain"

// Answers maps question id to the submitted option letter.
type Answers map[int64]string

// Score applies the fixed marking scheme: a match earns PointsCorrect, any other
// non-empty answer earns PointsWrong, and an unanswered question earns nothing.
// The result lies in [-len(questions), 4*len(questions)].
func Score(questions []domain.Question, answers Answers) (int, []domain.AnswerDetail) {
	score := 0
	details := make([]domain.AnswerDetail, 0, len(questions))
	for _, q := range questions {
		detail := domain.AnswerDetail{QuestionID: q.ID, Correct: q.CorrectOption}
		chosen, ok := answers[q.ID]
		switch {
		case !ok || chosen == "":
		case chosen == q.CorrectOption:
			score += domain.PointsCorrect
		default:
			score += domain.PointsWrong
		}
		if ok && chosen != "" {
			c := chosen
			detail.Chosen = &c
		}
		details = append(details, detail)
	}
	return score, details
}
