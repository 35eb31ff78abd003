package ingest

import (
	"context"

	"github.com/google/uuid"
)

type BundleRepository interface {
	Create(ctx context.Context, b *BundleRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*BundleRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]*BundleRecord, error)
	ResetAll(ctx context.Context) (int, error)
}
