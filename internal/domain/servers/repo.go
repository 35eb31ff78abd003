package servers

import (
	"context"

	"github.com/google/uuid"
)

type ServerRepository interface {
	Create(ctx context.Context, s *FhirServer) error
	GetByID(ctx context.Context, id uuid.UUID) (*FhirServer, error)
	List(ctx context.Context) ([]*FhirServer, error)
}
