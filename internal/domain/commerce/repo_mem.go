package commerce

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrPriceNotFound    = errors.New("price not found")
	ErrCourseNotFound   = errors.New("course not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// MemCatalogRepository is the in-memory catalog used in demo deployments.
type MemCatalogRepository struct {
	mu       sync.RWMutex
	products map[string]*Product
	prices   map[string]*Price // keyed by product SKU
	courses  map[string]*Course
}

func NewMemCatalogRepository() *MemCatalogRepository {
	return &MemCatalogRepository{
		products: make(map[string]*Product),
		prices:   make(map[string]*Price),
		courses:  make(map[string]*Course),
	}
}

func (r *MemCatalogRepository) Products(_ context.Context) ([]*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Product, 0, len(r.products))
	for _, p := range r.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r *MemCatalogRepository) ProductBySKU(_ context.Context, sku string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[sku]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemCatalogRepository) Prices(_ context.Context) ([]*Price, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Price, 0, len(r.prices))
	for _, p := range r.prices {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductSKU < out[j].ProductSKU })
	return out, nil
}

func (r *MemCatalogRepository) PriceForSKU(_ context.Context, sku string) (*Price, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.prices[sku]
	if !ok {
		return nil, ErrPriceNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemCatalogRepository) Courses(_ context.Context) ([]*Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Course, 0, len(r.courses))
	for _, c := range r.courses {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *MemCatalogRepository) CourseBySlug(_ context.Context, slug string) (*Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.courses[slug]
	if !ok {
		return nil, ErrCourseNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemCatalogRepository) UpsertProduct(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.SKU] = &cp
	return nil
}

func (r *MemCatalogRepository) UpsertPrice(_ context.Context, p *Price) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.prices[p.ProductSKU] = &cp
	return nil
}

func (r *MemCatalogRepository) UpsertCourse(_ context.Context, c *Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.courses[c.Slug] = &cp
	return nil
}

// MemPurchaseRepository is a thread-safe in-memory purchase store.
type MemPurchaseRepository struct {
	mu        sync.RWMutex
	purchases map[uuid.UUID]*Purchase
	events    map[string]bool
}

func NewMemPurchaseRepository() *MemPurchaseRepository {
	return &MemPurchaseRepository{
		purchases: make(map[uuid.UUID]*Purchase),
		events:    make(map[string]bool),
	}
}

func (r *MemPurchaseRepository) Create(_ context.Context, p *Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	r.purchases[p.ID] = &cp
	return nil
}

func (r *MemPurchaseRepository) GetByID(_ context.Context, id uuid.UUID) (*Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.purchases[id]
	if !ok {
		return nil, ErrPurchaseNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemPurchaseRepository) GetBySubscriptionID(_ context.Context, subscriptionID string) (*Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if subscriptionID == "" {
		return nil, ErrPurchaseNotFound
	}
	for _, p := range r.purchases {
		if p.StripeSubscriptionID == subscriptionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPurchaseNotFound
}

func (r *MemPurchaseRepository) GetBySessionID(_ context.Context, sessionID string) (*Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if sessionID == "" {
		return nil, ErrPurchaseNotFound
	}
	for _, p := range r.purchases {
		if p.StripeSessionID == sessionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPurchaseNotFound
}

func (r *MemPurchaseRepository) Update(_ context.Context, p *Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.purchases[p.ID]
	if !ok {
		return ErrPurchaseNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	r.purchases[p.ID] = &cp
	return nil
}

func (r *MemPurchaseRepository) ListByUser(_ context.Context, userID string) ([]*Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Purchase
	for _, p := range r.purchases {
		if p.UserID != userID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemPurchaseRepository) ListAll(_ context.Context) ([]*Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Purchase, 0, len(r.purchases))
	for _, p := range r.purchases {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemPurchaseRepository) MarkEventProcessed(_ context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.events[eventID] {
		return false, nil
	}
	r.events[eventID] = true
	return true, nil
}
