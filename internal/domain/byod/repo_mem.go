package byod

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound     = errors.New("byod session not found")
	ErrObservationNotFound = errors.New("byod observation not found")
	ErrAppNotFound         = errors.New("generated app not found")
)

type MemSessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*ByodSession
}

func NewMemSessionRepository() *MemSessionRepository {
	return &MemSessionRepository{sessions: make(map[uuid.UUID]*ByodSession)}
}

func (r *MemSessionRepository) Create(_ context.Context, s *ByodSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *MemSessionRepository) GetByID(_ context.Context, id uuid.UUID) (*ByodSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemSessionRepository) ListByLabSession(_ context.Context, labSessionID string) ([]*ByodSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*ByodSession
	for _, s := range r.sessions {
		if s.LabSessionID != labSessionID {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemSessionRepository) ResetAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.sessions)
	r.sessions = make(map[uuid.UUID]*ByodSession)
	return removed, nil
}

type MemObservationRepository struct {
	mu  sync.RWMutex
	obs map[uuid.UUID]*ByodObservation
}

func NewMemObservationRepository() *MemObservationRepository {
	return &MemObservationRepository{obs: make(map[uuid.UUID]*ByodObservation)}
}

func (r *MemObservationRepository) CreateBatch(_ context.Context, obs []*ByodObservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, o := range obs {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		cp := *o
		r.obs[o.ID] = &cp
	}
	return nil
}

func (r *MemObservationRepository) ListBySession(_ context.Context, byodSessionID uuid.UUID) ([]*ByodObservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*ByodObservation
	for _, o := range r.obs {
		if o.ByodSessionID != byodSessionID {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RecordedAt != out[j].RecordedAt {
			return out[i].RecordedAt < out[j].RecordedAt
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemObservationRepository) MarkPublished(_ context.Context, id uuid.UUID, fhirID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.obs[id]
	if !ok {
		return ErrObservationNotFound
	}
	o.Published = true
	o.FHIRID = fhirID
	return nil
}

func (r *MemObservationRepository) ResetAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.obs)
	r.obs = make(map[uuid.UUID]*ByodObservation)
	return removed, nil
}

type MemAppRepository struct {
	mu   sync.RWMutex
	apps map[uuid.UUID]*GeneratedApp
}

func NewMemAppRepository() *MemAppRepository {
	return &MemAppRepository{apps: make(map[uuid.UUID]*GeneratedApp)}
}

func (r *MemAppRepository) Create(_ context.Context, a *GeneratedApp) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	cp.Metrics = append([]string(nil), a.Metrics...)
	r.apps[a.ID] = &cp
	return nil
}

func (r *MemAppRepository) GetByID(_ context.Context, id uuid.UUID) (*GeneratedApp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.apps[id]
	if !ok {
		return nil, ErrAppNotFound
	}
	cp := *a
	cp.Metrics = append([]string(nil), a.Metrics...)
	return &cp, nil
}

func (r *MemAppRepository) ListBySession(_ context.Context, byodSessionID uuid.UUID) ([]*GeneratedApp, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*GeneratedApp
	for _, a := range r.apps {
		if a.ByodSessionID != byodSessionID {
			continue
		}
		cp := *a
		cp.Metrics = append([]string(nil), a.Metrics...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemAppRepository) ResetAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.apps)
	r.apps = make(map[uuid.UUID]*GeneratedApp)
	return removed, nil
}
