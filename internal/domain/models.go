package domain

import "time"

// Role is the authorization level fixed at account creation.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// OptionLetters lists the answer letters every question offers, in display order.
var OptionLetters = []string{"A", "B", "C", "D"}

// User is a registered account. Users are never updated or deleted.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity returns the session-facing view of the user.
func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// Identity is the verified caller of a request.
type Identity struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Quiz groups questions under a name and category.
type Quiz struct {
	ID        int64
	Name      string
	Category  string
	CreatedBy int64
	CreatedAt time.Time
}

// Question models an MCQ question with four lettered options and one correct letter.
type Question struct {
	ID            int64
	QuizID        int64
	Text          string
	OptionA       string
	OptionB       string
	OptionC       string
	OptionD       string
	CorrectOption string
}

// Option is a lettered answer choice.
type Option struct {
	Letter string
	Text   string
}

// Options returns the question's choices in A-D order.
func (q Question) Options() []Option {
	return []Option{
		{Letter: "A", Text: q.OptionA},
		{Letter: "B", Text: q.OptionB},
		{Letter: "C", Text: q.OptionC},
		{Letter: "D", Text: q.OptionD},
	}
}

// AnswerDetail is the per-question outcome stored with an attempt.
// Chosen is nil when the question was left unanswered.
type AnswerDetail struct {
	QuestionID int64   `json:"qid"`
	Chosen     *string `json:"chosen"`
	Correct    string  `json:"correct"`
}

// Attempt is one completed submission of a quiz. Attempts are immutable.
type Attempt struct {
	ID             int64          `json:"id"`
	UserID         int64          `json:"userId"`
	QuizID         int64          `json:"quizId"`
	StartedAt      time.Time      `json:"startedAt"`
	FinishedAt     time.Time      `json:"finishedAt"`
	TotalQuestions int            `json:"totalQuestions"`
	Score          int            `json:"score"`
	Details        []AnswerDetail `json:"details"`
}

// TotalPossible is the best achievable score for the attempt.
func (a Attempt) TotalPossible() int {
	return a.TotalQuestions * PointsCorrect
}

// AttemptView is an attempt joined with the names needed to list it.
type AttemptView struct {
	Attempt
	Username string `json:"username"`
	QuizName string `json:"quizName"`
}

// Result is what the taker sees after submitting.
type Result struct {
	AttemptID     int64
	QuizName      string
	Score         int
	TotalPossible int
}

const (
	// PointsCorrect is awarded for a matching answer.
	PointsCorrect = 4
	// PointsWrong is awarded for an answered but non-matching question.
	PointsWrong = -1
)
