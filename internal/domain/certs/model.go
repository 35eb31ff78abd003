package certs

import "time"

// Enrollment tracks a user's progress through a course. An enrollment is
// complete when every step is done, which unlocks certificate generation.
type Enrollment struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	CourseSlug     string     `json:"courseSlug"`
	TotalSteps     int        `json:"totalSteps"`
	CompletedSteps int        `json:"completedSteps"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CertificateID  string     `json:"certificateId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type Certificate struct {
	ID               string     `json:"certificateId"`
	EnrollmentID     string     `json:"enrollmentId"`
	UserID           string     `json:"userId"`
	UserName         string     `json:"userName"`
	CourseSlug       string     `json:"courseSlug"`
	CourseTitle      string     `json:"courseTitle"`
	IssuedAt         time.Time  `json:"issuedAt"`
	Valid            bool       `json:"valid"`
	RevokedAt        *time.Time `json:"revokedAt,omitempty"`
	RevocationReason string     `json:"revocationReason,omitempty"`
	VerificationURL  string     `json:"verificationUrl"`
}

type EnrollRequest struct {
	UserID     string `json:"userId"`
	CourseSlug string `json:"courseSlug"`
	TotalSteps int    `json:"totalSteps"`
}

type ProgressRequest struct {
	CompletedSteps int `json:"completedSteps"`
}

type GenerateRequest struct {
	UserName string `json:"userName"`
}

// GenerateResult is a structured outcome: incomplete enrollments produce
// Success=false with the current progress rather than an HTTP error.
type GenerateResult struct {
	Success     bool         `json:"success"`
	Certificate *Certificate `json:"certificate,omitempty"`
	Error       string       `json:"error,omitempty"`
	Progress    *Progress    `json:"progress,omitempty"`
}

type Progress struct {
	TotalSteps     int `json:"totalSteps"`
	CompletedSteps int `json:"completedSteps"`
}

type VerifyResult struct {
	Valid                 bool   `json:"valid"`
	Error                 string `json:"error,omitempty"`
	CertificateID         string `json:"certificateId,omitempty"`
	UserID                string `json:"userId,omitempty"`
	UserName              string `json:"userName,omitempty"`
	CourseSlug            string `json:"courseSlug,omitempty"`
	CourseTitle           string `json:"courseTitle,omitempty"`
	IssuedAt              string `json:"issuedAt,omitempty"`
	VerificationTimestamp string `json:"verificationTimestamp"`
}

type RevokeRequest struct {
	Reason string `json:"reason"`
}
