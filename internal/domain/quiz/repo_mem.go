package quiz

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQuizNotFound    = errors.New("quiz not found")
	ErrAttemptNotFound = errors.New("quiz attempt not found")
)

// MemQuizRepository serves the fixture quiz set. The set is immutable after
// construction so reads take no lock.
type MemQuizRepository struct {
	bySlug  map[string]*Quiz
	ordered []*Quiz
}

func NewMemQuizRepository(quizzes []*Quiz) *MemQuizRepository {
	r := &MemQuizRepository{bySlug: make(map[string]*Quiz)}
	r.ordered = append(r.ordered, quizzes...)
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].LabDay < r.ordered[j].LabDay })
	for _, q := range quizzes {
		r.bySlug[q.Slug] = q
	}
	return r
}

func (r *MemQuizRepository) List(_ context.Context) ([]*Quiz, error) {
	return append([]*Quiz(nil), r.ordered...), nil
}

func (r *MemQuizRepository) GetBySlug(_ context.Context, slug string) (*Quiz, error) {
	q, ok := r.bySlug[slug]
	if !ok {
		return nil, ErrQuizNotFound
	}
	return q, nil
}

// MemAttemptRepository is a thread-safe in-memory attempt store.
type MemAttemptRepository struct {
	mu       sync.RWMutex
	attempts map[uuid.UUID]*QuizAttempt
}

func NewMemAttemptRepository() *MemAttemptRepository {
	return &MemAttemptRepository{attempts: make(map[uuid.UUID]*QuizAttempt)}
}

func (r *MemAttemptRepository) Create(_ context.Context, a *QuizAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	cp.Answers = append([]QuizAnswer(nil), a.Answers...)
	r.attempts[a.ID] = &cp
	return nil
}

func (r *MemAttemptRepository) GetByID(_ context.Context, id uuid.UUID) (*QuizAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.attempts[id]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	cp := *a
	cp.Answers = append([]QuizAnswer(nil), a.Answers...)
	return &cp, nil
}

func (r *MemAttemptRepository) ListBySessionQuiz(_ context.Context, sessionID, quizID string) ([]*QuizAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*QuizAttempt
	for _, a := range r.attempts {
		if a.SessionID != sessionID || a.QuizID != quizID {
			continue
		}
		cp := *a
		cp.Answers = append([]QuizAnswer(nil), a.Answers...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemAttemptRepository) ResetAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.attempts)
	r.attempts = make(map[uuid.UUID]*QuizAttempt)
	return removed, nil
}
