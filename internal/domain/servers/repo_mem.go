package servers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrServerNotFound = errors.New("fhir server not found")

// MemRepository is a thread-safe in-memory server registry.
type MemRepository struct {
	mu      sync.RWMutex
	servers map[uuid.UUID]*FhirServer
}

func NewMemRepository() *MemRepository {
	return &MemRepository{servers: make(map[uuid.UUID]*FhirServer)}
}

func (r *MemRepository) Create(_ context.Context, s *FhirServer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	cp := *s
	r.servers[s.ID] = &cp
	return nil
}

func (r *MemRepository) GetByID(_ context.Context, id uuid.UUID) (*FhirServer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.servers[id]
	if !ok {
		return nil, ErrServerNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemRepository) List(_ context.Context) ([]*FhirServer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*FhirServer, 0, len(r.servers))
	for _, s := range r.servers {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
