package lab

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/fhirbootcamp/api/internal/platform/artifacts"
)

type Service struct {
	progress  ProgressRepository
	artifacts ArtifactRepository
	files     *artifacts.Store
}

func NewService(progress ProgressRepository, artifactRepo ArtifactRepository, files *artifacts.Store) *Service {
	return &Service{progress: progress, artifacts: artifactRepo, files: files}
}

func (s *Service) UpsertProgress(ctx context.Context, p *LabProgress) (*LabProgress, error) {
	if p.SessionID == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	if p.LabDay < 1 {
		return nil, fmt.Errorf("labDay must be positive")
	}
	if p.StepName == "" {
		return nil, fmt.Errorf("stepName is required")
	}
	return s.progress.Upsert(ctx, p)
}

func (s *Service) Progress(ctx context.Context, sessionID string) ([]*LabProgress, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	return s.progress.ListBySession(ctx, sessionID)
}

func (s *Service) ProgressForDay(ctx context.Context, sessionID string, labDay int) ([]*LabProgress, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	if labDay < 1 {
		return nil, fmt.Errorf("labDay must be positive")
	}
	return s.progress.ListBySessionDay(ctx, sessionID, labDay)
}

// ResetProgress clears a session's progress records and artifact records,
// including any files behind them.
func (s *Service) ResetProgress(ctx context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("sessionId is required")
	}

	stale, err := s.artifacts.List(ctx, sessionID, 0)
	if err != nil {
		return 0, err
	}
	for _, a := range stale {
		if a.FileName != "" {
			_ = s.files.Remove(a.FileName)
		}
	}
	if _, err := s.artifacts.ResetSession(ctx, sessionID); err != nil {
		return 0, err
	}

	return s.progress.ResetSession(ctx, sessionID)
}

// RecordArtifact persists an artifact record. When content is non-nil the
// bytes are written to the artifact store first and the stored file name is
// attached to the record.
func (s *Service) RecordArtifact(ctx context.Context, a *Artifact, content []byte) (*Artifact, error) {
	if a.SessionID == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	if a.Kind == "" {
		return nil, fmt.Errorf("artifact kind is required")
	}

	if content != nil {
		name := a.DisplayName
		if name == "" {
			name = a.Kind
		}
		stored, err := s.files.Write(name, content)
		if err != nil {
			return nil, err
		}
		a.FileName = stored
	}

	if err := s.artifacts.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Artifacts(ctx context.Context, sessionID string, labDay int) ([]*Artifact, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	return s.artifacts.List(ctx, sessionID, labDay)
}

// OpenArtifact returns the record and a reader over its file content.
func (s *Service) OpenArtifact(ctx context.Context, id uuid.UUID) (*Artifact, io.ReadCloser, error) {
	a, err := s.artifacts.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if a.FileName == "" {
		return nil, nil, fmt.Errorf("artifact %s has no file content", id)
	}
	r, err := s.files.Open(a.FileName)
	if err != nil {
		return nil, nil, err
	}
	return a, r, nil
}

// ResetAll clears every session's lab state. Used by the admin class reset.
func (s *Service) ResetAll(ctx context.Context) (int, error) {
	all, err := s.artifacts.ResetAll(ctx)
	if err != nil {
		return 0, err
	}
	progress, err := s.progress.ResetAll(ctx)
	if err != nil {
		return all, err
	}
	return all + progress, nil
}
