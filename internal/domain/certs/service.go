package certs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CourseDirectory resolves a course slug to its display title. Wired to the
// commerce catalog at startup; a nil directory falls back to the slug.
type CourseDirectory interface {
	CourseTitle(ctx context.Context, slug string) (string, error)
}

type Service struct {
	enrollments EnrollmentRepository
	certs       CertificateRepository
	courses     CourseDirectory
	verifyBase  string
	log         zerolog.Logger
}

func NewService(enrollments EnrollmentRepository, certs CertificateRepository, courses CourseDirectory, verifyBase string, log zerolog.Logger) *Service {
	if verifyBase == "" {
		verifyBase = "/api/certificates/verify"
	}
	return &Service{enrollments: enrollments, certs: certs, courses: courses, verifyBase: verifyBase, log: log}
}

func (s *Service) Enroll(ctx context.Context, req EnrollRequest) (*Enrollment, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("userId is required")
	}
	if req.CourseSlug == "" {
		return nil, fmt.Errorf("courseSlug is required")
	}
	if req.TotalSteps <= 0 {
		return nil, fmt.Errorf("totalSteps must be positive")
	}

	now := time.Now().UTC()
	e := &Enrollment{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		CourseSlug: req.CourseSlug,
		TotalSteps: req.TotalSteps,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.enrollments.Create(ctx, e); err != nil {
		return nil, err
	}
	s.log.Info().Str("enrollment_id", e.ID).Str("course", e.CourseSlug).Msg("user enrolled")
	return e, nil
}

func (s *Service) Enrollments(ctx context.Context, userID string) ([]*Enrollment, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required")
	}
	return s.enrollments.ListByUser(ctx, userID)
}

// UpdateProgress records completed steps and flips the enrollment to
// completed when every step is done. Progress never moves backwards.
func (s *Service) UpdateProgress(ctx context.Context, enrollmentID string, req ProgressRequest) (*Enrollment, error) {
	if req.CompletedSteps < 0 {
		return nil, fmt.Errorf("completedSteps cannot be negative")
	}
	e, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if req.CompletedSteps > e.TotalSteps {
		return nil, fmt.Errorf("completedSteps %d exceeds totalSteps %d", req.CompletedSteps, e.TotalSteps)
	}
	if req.CompletedSteps < e.CompletedSteps {
		return e, nil
	}

	e.CompletedSteps = req.CompletedSteps
	e.UpdatedAt = time.Now().UTC()
	if e.CompletedSteps == e.TotalSteps && !e.Completed {
		e.Completed = true
		now := time.Now().UTC()
		e.CompletedAt = &now
	}
	if err := s.enrollments.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GenerateCertificate issues a certificate for a completed enrollment. The
// verification code is derived from the enrollment id so regenerating
// returns the same certificate.
func (s *Service) GenerateCertificate(ctx context.Context, enrollmentID string, req GenerateRequest) (*GenerateResult, error) {
	e, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if !e.Completed {
		return &GenerateResult{
			Error:    "Course must be completed before certificate generation",
			Progress: &Progress{TotalSteps: e.TotalSteps, CompletedSteps: e.CompletedSteps},
		}, nil
	}

	certID := fmt.Sprintf("cert_%s", e.ID)
	if existing, err := s.certs.GetByID(ctx, certID); err == nil {
		return &GenerateResult{Success: true, Certificate: existing}, nil
	}

	title := e.CourseSlug
	if s.courses != nil {
		if t, err := s.courses.CourseTitle(ctx, e.CourseSlug); err == nil && t != "" {
			title = t
		}
	}

	cert := &Certificate{
		ID:              certID,
		EnrollmentID:    e.ID,
		UserID:          e.UserID,
		UserName:        req.UserName,
		CourseSlug:      e.CourseSlug,
		CourseTitle:     title,
		IssuedAt:        time.Now().UTC(),
		Valid:           true,
		VerificationURL: fmt.Sprintf("%s/%s", s.verifyBase, certID),
	}
	if err := s.certs.Create(ctx, cert); err != nil {
		return nil, err
	}

	e.CertificateID = certID
	e.UpdatedAt = time.Now().UTC()
	if err := s.enrollments.Update(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info().Str("certificate_id", certID).Str("user_id", e.UserID).Msg("certificate issued")
	return &GenerateResult{Success: true, Certificate: cert}, nil
}

// Verify resolves a certificate code. Unknown and revoked codes are
// reported in the result, never as errors.
func (s *Service) Verify(ctx context.Context, code string) *VerifyResult {
	now := time.Now().UTC().Format(time.RFC3339)
	cert, err := s.certs.GetByID(ctx, code)
	if err != nil {
		return &VerifyResult{Valid: false, Error: "Certificate not found", VerificationTimestamp: now}
	}
	if !cert.Valid {
		return &VerifyResult{Valid: false, Error: "Certificate has been revoked", VerificationTimestamp: now}
	}
	return &VerifyResult{
		Valid:                 true,
		CertificateID:         cert.ID,
		UserID:                cert.UserID,
		UserName:              cert.UserName,
		CourseSlug:            cert.CourseSlug,
		CourseTitle:           cert.CourseTitle,
		IssuedAt:              cert.IssuedAt.Format(time.RFC3339),
		VerificationTimestamp: now,
	}
}

func (s *Service) Revoke(ctx context.Context, code, reason string) (*Certificate, error) {
	cert, err := s.certs.GetByID(ctx, code)
	if err != nil {
		return nil, err
	}
	if !cert.Valid {
		return cert, nil
	}
	cert.Valid = false
	now := time.Now().UTC()
	cert.RevokedAt = &now
	cert.RevocationReason = reason
	if err := s.certs.Update(ctx, cert); err != nil {
		return nil, err
	}
	s.log.Info().Str("certificate_id", code).Str("reason", reason).Msg("certificate revoked")
	return cert, nil
}
