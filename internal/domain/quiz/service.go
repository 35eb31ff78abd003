package quiz

import (
	"context"
	"fmt"
	"math"
	"time"
)

type Service struct {
	quizzes  QuizRepository
	attempts AttemptRepository

	// gradeHook fires after each persisted grading run.
	gradeHook func(ctx context.Context, sessionID, quizID string, score int, passed bool)
}

func NewService(quizzes QuizRepository, attempts AttemptRepository) *Service {
	return &Service{quizzes: quizzes, attempts: attempts}
}

// SetGradeHook wires a callback invoked after each completed grading run.
func (s *Service) SetGradeHook(hook func(ctx context.Context, sessionID, quizID string, score int, passed bool)) {
	s.gradeHook = hook
}

func (s *Service) ListQuizzes(ctx context.Context) ([]QuizView, error) {
	quizzes, err := s.quizzes.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]QuizView, 0, len(quizzes))
	for _, q := range quizzes {
		views = append(views, q.View())
	}
	return views, nil
}

func (s *Service) GetQuiz(ctx context.Context, slug string) (*QuizView, error) {
	q, err := s.quizzes.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	view := q.View()
	return &view, nil
}

// Grade scores a submission against the quiz answer key. Every question in
// the quiz counts toward the total; unanswered questions are incorrect. The
// attempt is persisted as completed regardless of pass/fail.
func (s *Service) Grade(ctx context.Context, slug string, req GradeRequest) (*GradeResult, error) {
	if req.SessionID == "" {
		return &GradeResult{Success: false, Message: "sessionId is required"}, nil
	}

	q, err := s.quizzes.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	chosen := make(map[string]string, len(req.Answers))
	for _, a := range req.Answers {
		chosen[a.QuestionID] = a.ChoiceID
	}

	var answers []QuizAnswer
	correct := 0
	for _, question := range q.Questions {
		choiceID := chosen[question.ID]
		isCorrect := false
		for _, choice := range question.Choices {
			if choice.ID == choiceID && choice.Correct {
				isCorrect = true
				break
			}
		}
		if isCorrect {
			correct++
		}
		answers = append(answers, QuizAnswer{
			QuestionID: question.ID,
			ChoiceID:   choiceID,
			Correct:    isCorrect,
		})
	}

	total := len(q.Questions)
	if total == 0 {
		return &GradeResult{Success: false, Message: "quiz has no questions"}, nil
	}

	score := int(math.Round(float64(correct) / float64(total) * 100))
	passed := score >= q.PassingScore

	now := time.Now().UTC()
	attempt := &QuizAttempt{
		QuizID:      q.ID,
		QuizSlug:    q.Slug,
		SessionID:   req.SessionID,
		Status:      AttemptCompleted,
		Score:       score,
		Passed:      passed,
		Answers:     answers,
		CompletedAt: &now,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("persist attempt: %w", err)
	}

	if s.gradeHook != nil {
		s.gradeHook(ctx, req.SessionID, q.ID, score, passed)
	}

	return &GradeResult{
		Success:   true,
		AttemptID: attempt.ID,
		Score:     score,
		Passed:    passed,
		Correct:   correct,
		Total:     total,
	}, nil
}

func (s *Service) Attempts(ctx context.Context, slug, sessionID string) ([]*QuizAttempt, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	q, err := s.quizzes.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.attempts.ListBySessionQuiz(ctx, sessionID, q.ID)
}

// ResetAll clears every attempt. Used by the admin class reset.
func (s *Service) ResetAll(ctx context.Context) (int, error) {
	return s.attempts.ResetAll(ctx)
}
