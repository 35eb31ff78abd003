package ingest

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BundleRecord is the bookkeeping entry for an uploaded bundle.
type BundleRecord struct {
	ID            uuid.UUID `json:"id"`
	SessionID     string    `json:"sessionId"`
	FileName      string    `json:"fileName"`
	TargetURL     string    `json:"targetUrl"`
	ResourceCount int       `json:"resourceCount"`
	CreatedIDs    []string  `json:"createdIds"`
	FallbackUsed  bool      `json:"fallbackUsed"`
	CreatedAt     time.Time `json:"createdAt"`
}

// UploadRequest is the bundle upload payload.
type UploadRequest struct {
	SessionID string          `json:"sessionId"`
	BaseURL   string          `json:"baseUrl"`
	FileName  string          `json:"fileName"`
	Bundle    json.RawMessage `json:"bundle"`
}

// UploadResult reports the outcome of a bundle upload, including the
// per-entry errors collected during a fallback run.
type UploadResult struct {
	Success       bool      `json:"success"`
	BundleID      uuid.UUID `json:"bundleId,omitempty"`
	ResourceCount int       `json:"resourceCount"`
	CreatedIDs    []string  `json:"createdIds,omitempty"`
	FallbackUsed  bool      `json:"fallbackUsed"`
	Errors        []string  `json:"errors,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// ExportRequest asks for a CSV export of one resource type for one patient.
type ExportRequest struct {
	SessionID    string `json:"sessionId"`
	BaseURL      string `json:"baseUrl"`
	PatientID    string `json:"patientId"`
	ResourceType string `json:"resourceType"`
}

// ExportResult reports the outcome of a CSV export.
type ExportResult struct {
	Success    bool      `json:"success"`
	ArtifactID uuid.UUID `json:"artifactId,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
	RowCount   int       `json:"rowCount,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// PublishRequest carries the fields for a single Observation to publish.
type PublishRequest struct {
	SessionID string  `json:"sessionId"`
	BaseURL   string  `json:"baseUrl"`
	PatientID string  `json:"patientId"`
	Code      string  `json:"code"`
	Display   string  `json:"display"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
}

// PublishResult reports the outcome of an Observation publish.
type PublishResult struct {
	Success     bool      `json:"success"`
	ResourceID  string    `json:"resourceId,omitempty"`
	ResourceURL string    `json:"resourceUrl,omitempty"`
	ArtifactID  uuid.UUID `json:"artifactId,omitempty"`
	Message     string    `json:"message,omitempty"`
}
