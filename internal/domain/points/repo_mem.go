package points

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var ErrBadgeNotFound = errors.New("badge not found")

type MemLedgerRepository struct {
	mu      sync.RWMutex
	entries []*LedgerEntry
}

func NewMemLedgerRepository() *MemLedgerRepository {
	return &MemLedgerRepository{}
}

func (r *MemLedgerRepository) Append(_ context.Context, entry *LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *MemLedgerRepository) ListByUser(_ context.Context, userID string) ([]*LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*LedgerEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemLedgerRepository) Find(_ context.Context, userID, awardType, refID string) (*LedgerEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.UserID == userID && e.AwardType == awardType && e.RefID == refID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemLedgerRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}

type MemBadgeRepository struct {
	mu     sync.RWMutex
	badges map[string]*Badge
}

func NewMemBadgeRepository() *MemBadgeRepository {
	return &MemBadgeRepository{badges: make(map[string]*Badge)}
}

func (r *MemBadgeRepository) Upsert(_ context.Context, badge *Badge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *badge
	r.badges[badge.Code] = &cp
	return nil
}

func (r *MemBadgeRepository) GetByCode(_ context.Context, code string) (*Badge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.badges[code]
	if !ok {
		return nil, ErrBadgeNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *MemBadgeRepository) List(_ context.Context) ([]*Badge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Badge, 0, len(r.badges))
	for _, b := range r.badges {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
