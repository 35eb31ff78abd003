package lab

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// MemProgressRepository is a thread-safe in-memory progress store. Records
// are held in a slice and matched by (session, day, step) with a linear
// scan; class sizes keep the collections small.
type MemProgressRepository struct {
	mu      sync.RWMutex
	records []*LabProgress
}

func NewMemProgressRepository() *MemProgressRepository {
	return &MemProgressRepository{}
}

func (r *MemProgressRepository) Upsert(_ context.Context, p *LabProgress) (*LabProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, existing := range r.records {
		if existing.SessionID == p.SessionID && existing.LabDay == p.LabDay && existing.StepName == p.StepName {
			if p.Completed && !existing.Completed {
				at := now
				existing.CompletedAt = &at
			}
			if !p.Completed {
				existing.CompletedAt = nil
			}
			existing.Completed = p.Completed
			existing.Metadata = cloneMetadata(p.Metadata)
			existing.UpdatedAt = now
			return copyProgress(existing), nil
		}
	}

	rec := &LabProgress{
		ID:        uuid.New(),
		SessionID: p.SessionID,
		LabDay:    p.LabDay,
		StepName:  p.StepName,
		Completed: p.Completed,
		Metadata:  cloneMetadata(p.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Completed {
		at := now
		rec.CompletedAt = &at
	}
	r.records = append(r.records, rec)
	return copyProgress(rec), nil
}

func (r *MemProgressRepository) ListBySession(_ context.Context, sessionID string) ([]*LabProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*LabProgress
	for _, rec := range r.records {
		if rec.SessionID == sessionID {
			out = append(out, copyProgress(rec))
		}
	}
	sortProgress(out)
	return out, nil
}

func (r *MemProgressRepository) ListBySessionDay(_ context.Context, sessionID string, labDay int) ([]*LabProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*LabProgress
	for _, rec := range r.records {
		if rec.SessionID == sessionID && rec.LabDay == labDay {
			out = append(out, copyProgress(rec))
		}
	}
	sortProgress(out)
	return out, nil
}

func (r *MemProgressRepository) ResetSession(_ context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[:0]
	removed := 0
	for _, rec := range r.records {
		if rec.SessionID == sessionID {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	r.records = kept
	return removed, nil
}

func (r *MemProgressRepository) ResetAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.records)
	r.records = nil
	return removed, nil
}

// copyProgress returns a detached copy so callers cannot mutate stored
// records through the shared metadata map.
func copyProgress(rec *LabProgress) *LabProgress {
	cp := *rec
	cp.Metadata = cloneMetadata(rec.Metadata)
	return &cp
}

func cloneMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortProgress(recs []*LabProgress) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].LabDay != recs[j].LabDay {
			return recs[i].LabDay < recs[j].LabDay
		}
		return recs[i].StepName < recs[j].StepName
	})
}

// MemArtifactRepository is a thread-safe in-memory artifact record store.
type MemArtifactRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Artifact
}

func NewMemArtifactRepository() *MemArtifactRepository {
	return &MemArtifactRepository{records: make(map[uuid.UUID]*Artifact)}
}

func (r *MemArtifactRepository) Create(_ context.Context, a *Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	r.records[a.ID] = &cp
	return nil
}

func (r *MemArtifactRepository) GetByID(_ context.Context, id uuid.UUID) (*Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.records[id]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	cp := *a
	return &cp, nil
}

// List filters by session, and by lab day when labDay > 0.
func (r *MemArtifactRepository) List(_ context.Context, sessionID string, labDay int) ([]*Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Artifact
	for _, a := range r.records {
		if a.SessionID != sessionID {
			continue
		}
		if labDay > 0 && a.LabDay != labDay {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemArtifactRepository) ResetSession(_ context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, a := range r.records {
		if a.SessionID == sessionID {
			delete(r.records, id)
			removed++
		}
	}
	return removed, nil
}

func (r *MemArtifactRepository) ResetAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.records)
	r.records = make(map[uuid.UUID]*Artifact)
	return removed, nil
}
