package quiz

import (
	"context"

	"github.com/google/uuid"
)

type QuizRepository interface {
	List(ctx context.Context) ([]*Quiz, error)
	GetBySlug(ctx context.Context, slug string) (*Quiz, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, a *QuizAttempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*QuizAttempt, error)
	ListBySessionQuiz(ctx context.Context, sessionID, quizID string) ([]*QuizAttempt, error)
	ResetAll(ctx context.Context) (int, error)
}
