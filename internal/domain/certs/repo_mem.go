package certs

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrAlreadyEnrolled     = errors.New("user already enrolled in course")
)

type MemEnrollmentRepository struct {
	mu          sync.RWMutex
	enrollments map[string]*Enrollment
}

func NewMemEnrollmentRepository() *MemEnrollmentRepository {
	return &MemEnrollmentRepository{enrollments: make(map[string]*Enrollment)}
}

func (r *MemEnrollmentRepository) Create(_ context.Context, e *Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.enrollments {
		if existing.UserID == e.UserID && existing.CourseSlug == e.CourseSlug {
			return ErrAlreadyEnrolled
		}
	}
	cp := *e
	r.enrollments[e.ID] = &cp
	return nil
}

func (r *MemEnrollmentRepository) GetByID(_ context.Context, id string) (*Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.enrollments[id]
	if !ok {
		return nil, ErrEnrollmentNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *MemEnrollmentRepository) GetByUserAndCourse(_ context.Context, userID, courseSlug string) (*Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.enrollments {
		if e.UserID == userID && e.CourseSlug == courseSlug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrEnrollmentNotFound
}

func (r *MemEnrollmentRepository) ListByUser(_ context.Context, userID string) ([]*Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Enrollment
	for _, e := range r.enrollments {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemEnrollmentRepository) Update(_ context.Context, e *Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.enrollments[e.ID]; !ok {
		return ErrEnrollmentNotFound
	}
	cp := *e
	r.enrollments[e.ID] = &cp
	return nil
}

type MemCertificateRepository struct {
	mu    sync.RWMutex
	certs map[string]*Certificate
}

func NewMemCertificateRepository() *MemCertificateRepository {
	return &MemCertificateRepository{certs: make(map[string]*Certificate)}
}

func (r *MemCertificateRepository) Create(_ context.Context, c *Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.certs[c.ID] = &cp
	return nil
}

func (r *MemCertificateRepository) GetByID(_ context.Context, id string) (*Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.certs[id]
	if !ok {
		return nil, ErrCertificateNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemCertificateRepository) Update(_ context.Context, c *Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.certs[c.ID]; !ok {
		return ErrCertificateNotFound
	}
	cp := *c
	r.certs[c.ID] = &cp
	return nil
}
