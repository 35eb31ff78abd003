package lab

import (
	"time"

	"github.com/google/uuid"
)

// LabProgress tracks one step of one lab day for a session. There is exactly
// one record per (session, day, step); repeated submissions update in place.
type LabProgress struct {
	ID          uuid.UUID  `json:"id"`
	SessionID   string     `json:"sessionId"`
	LabDay      int        `json:"labDay"`
	StepName    string     `json:"stepName"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	// Metadata carries free-form step details (client notes, resource ids,
	// timings); it is replaced wholesale on each upsert.
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// Artifact kinds produced by the lab pipelines.
const (
	ArtifactCSVExport     = "csv_export"
	ArtifactObservation   = "published_observation"
	ArtifactBundleUpload  = "bundle_upload"
	ArtifactByodConverted = "byod_conversion"
)

// Artifact records a file or resource produced during a lab. File-backed
// artifacts carry a stored file name; resource-backed ones carry the created
// resource id and URL.
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	SessionID   string    `json:"sessionId"`
	LabDay      int       `json:"labDay"`
	Kind        string    `json:"kind"`
	DisplayName string    `json:"displayName"`
	FileName    string    `json:"fileName,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	ResourceID  string    `json:"resourceId,omitempty"`
	ResourceURL string    `json:"resourceUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
