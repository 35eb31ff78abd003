package certs

import "context"

type EnrollmentRepository interface {
	Create(ctx context.Context, e *Enrollment) error
	GetByID(ctx context.Context, id string) (*Enrollment, error)
	GetByUserAndCourse(ctx context.Context, userID, courseSlug string) (*Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]*Enrollment, error)
	Update(ctx context.Context, e *Enrollment) error
}

type CertificateRepository interface {
	Create(ctx context.Context, c *Certificate) error
	GetByID(ctx context.Context, id string) (*Certificate, error)
	Update(ctx context.Context, c *Certificate) error
}
