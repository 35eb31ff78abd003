package ingest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrBundleNotFound = errors.New("bundle record not found")

// MemBundleRepository is a thread-safe in-memory bundle record store.
type MemBundleRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*BundleRecord
}

func NewMemBundleRepository() *MemBundleRepository {
	return &MemBundleRepository{records: make(map[uuid.UUID]*BundleRecord)}
}

func (r *MemBundleRepository) Create(_ context.Context, b *BundleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	cp := *b
	cp.CreatedIDs = append([]string(nil), b.CreatedIDs...)
	r.records[b.ID] = &cp
	return nil
}

func (r *MemBundleRepository) GetByID(_ context.Context, id uuid.UUID) (*BundleRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.records[id]
	if !ok {
		return nil, ErrBundleNotFound
	}
	cp := *b
	cp.CreatedIDs = append([]string(nil), b.CreatedIDs...)
	return &cp, nil
}

func (r *MemBundleRepository) ListBySession(_ context.Context, sessionID string) ([]*BundleRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*BundleRecord
	for _, b := range r.records {
		if b.SessionID != sessionID {
			continue
		}
		cp := *b
		cp.CreatedIDs = append([]string(nil), b.CreatedIDs...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemBundleRepository) ResetAll(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := len(r.records)
	r.records = make(map[uuid.UUID]*BundleRecord)
	return removed, nil
}
