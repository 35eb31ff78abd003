package lab

import (
	"context"

	"github.com/google/uuid"
)

type ProgressRepository interface {
	Upsert(ctx context.Context, p *LabProgress) (*LabProgress, error)
	ListBySession(ctx context.Context, sessionID string) ([]*LabProgress, error)
	ListBySessionDay(ctx context.Context, sessionID string, labDay int) ([]*LabProgress, error)
	ResetSession(ctx context.Context, sessionID string) (int, error)
	ResetAll(ctx context.Context) (int, error)
}

type ArtifactRepository interface {
	Create(ctx context.Context, a *Artifact) error
	GetByID(ctx context.Context, id uuid.UUID) (*Artifact, error)
	List(ctx context.Context, sessionID string, labDay int) ([]*Artifact, error)
	ResetSession(ctx context.Context, sessionID string) (int, error)
	ResetAll(ctx context.Context) (int, error)
}
