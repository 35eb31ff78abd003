package byod

import (
	"context"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, s *ByodSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*ByodSession, error)
	ListByLabSession(ctx context.Context, labSessionID string) ([]*ByodSession, error)
	ResetAll(ctx context.Context) (int, error)
}

type ObservationRepository interface {
	CreateBatch(ctx context.Context, obs []*ByodObservation) error
	ListBySession(ctx context.Context, byodSessionID uuid.UUID) ([]*ByodObservation, error)
	MarkPublished(ctx context.Context, id uuid.UUID, fhirID string) error
	ResetAll(ctx context.Context) (int, error)
}

type AppRepository interface {
	Create(ctx context.Context, a *GeneratedApp) error
	GetByID(ctx context.Context, id uuid.UUID) (*GeneratedApp, error)
	ListBySession(ctx context.Context, byodSessionID uuid.UUID) ([]*GeneratedApp, error)
	ResetAll(ctx context.Context) (int, error)
}
