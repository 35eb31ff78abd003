package quiz

import (
	"time"

	"github.com/google/uuid"
)

// Quiz, Question and Choice are loaded from the embedded fixture file at
// startup and never mutated, so their ids are stable strings rather than
// generated UUIDs.
type Quiz struct {
	ID           string     `json:"id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	LabDay       int        `json:"labDay"`
	PassingScore int        `json:"passingScore"`
	Questions    []Question `json:"questions"`
}

type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// QuizView is the client-facing quiz shape with answer keys stripped.
type QuizView struct {
	ID           string         `json:"id"`
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	LabDay       int            `json:"labDay"`
	PassingScore int            `json:"passingScore"`
	Questions    []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID      string       `json:"id"`
	Prompt  string       `json:"prompt"`
	Choices []ChoiceView `json:"choices"`
}

type ChoiceView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// View strips the correct flags for client delivery.
func (q *Quiz) View() QuizView {
	view := QuizView{
		ID:           q.ID,
		Slug:         q.Slug,
		Title:        q.Title,
		Description:  q.Description,
		LabDay:       q.LabDay,
		PassingScore: q.PassingScore,
	}
	for _, question := range q.Questions {
		qv := QuestionView{ID: question.ID, Prompt: question.Prompt}
		for _, choice := range question.Choices {
			qv.Choices = append(qv.Choices, ChoiceView{ID: choice.ID, Text: choice.Text})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

// AttemptCompleted is the only attempt status: grading is synchronous, so
// attempts are recorded already completed.
const AttemptCompleted = "completed"

// QuizAttempt records one grading run for a session.
type QuizAttempt struct {
	ID          uuid.UUID    `json:"id"`
	QuizID      string       `json:"quizId"`
	QuizSlug    string       `json:"quizSlug"`
	SessionID   string       `json:"sessionId"`
	Status      string       `json:"status"`
	Score       int          `json:"score"`
	Passed      bool         `json:"passed"`
	Answers     []QuizAnswer `json:"answers"`
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

type QuizAnswer struct {
	QuestionID string `json:"questionId"`
	ChoiceID   string `json:"choiceId"`
	Correct    bool   `json:"correct"`
}

// GradeRequest is the grading payload.
type GradeRequest struct {
	SessionID string          `json:"sessionId"`
	Answers   []AnswerRequest `json:"answers"`
}

type AnswerRequest struct {
	QuestionID string `json:"questionId"`
	ChoiceID   string `json:"choiceId"`
}

// GradeResult reports the outcome of grading one submission.
type GradeResult struct {
	Success   bool      `json:"success"`
	AttemptID uuid.UUID `json:"attemptId,omitempty"`
	Score     int       `json:"score"`
	Passed    bool      `json:"passed"`
	Correct   int       `json:"correct"`
	Total     int       `json:"total"`
	Message   string    `json:"message,omitempty"`
}
