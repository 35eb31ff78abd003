package commerce

import (
	"context"

	"github.com/google/uuid"
)

// CatalogRepository serves products, prices and courses.
type CatalogRepository interface {
	Products(ctx context.Context) ([]*Product, error)
	ProductBySKU(ctx context.Context, sku string) (*Product, error)
	Prices(ctx context.Context) ([]*Price, error)
	PriceForSKU(ctx context.Context, sku string) (*Price, error)
	Courses(ctx context.Context) ([]*Course, error)
	CourseBySlug(ctx context.Context, slug string) (*Course, error)

	UpsertProduct(ctx context.Context, p *Product) error
	UpsertPrice(ctx context.Context, p *Price) error
	UpsertCourse(ctx context.Context, c *Course) error
}

// PurchaseRepository stores purchases plus the processed-event set backing
// webhook idempotency.
type PurchaseRepository interface {
	Create(ctx context.Context, p *Purchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*Purchase, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Purchase, error)
	Update(ctx context.Context, p *Purchase) error
	ListByUser(ctx context.Context, userID string) ([]*Purchase, error)
	ListAll(ctx context.Context) ([]*Purchase, error)

	// MarkEventProcessed records an event id, returning false when the id
	// was already recorded.
	MarkEventProcessed(ctx context.Context, eventID string) (bool, error)
}
