package byod

import (
	"time"

	"github.com/google/uuid"
)

// Supported import sources.
const (
	SourceAppleHealth = "apple_health"
	SourceGoogleFit   = "google_fit"
	SourceManual      = "manual"
)

// ByodSession groups one imported personal-data file for a lab session.
type ByodSession struct {
	ID           uuid.UUID `json:"id"`
	LabSessionID string    `json:"sessionId"`
	FileName     string    `json:"fileName"`
	Source       string    `json:"source"`
	RowCount     int       `json:"rowCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ByodObservation is one parsed metric row, optionally published as a FHIR
// Observation.
type ByodObservation struct {
	ID            uuid.UUID `json:"id"`
	ByodSessionID uuid.UUID `json:"byodSessionId"`
	MetricType    string    `json:"metricType"`
	Value         float64   `json:"value"`
	Unit          string    `json:"unit"`
	RecordedAt    string    `json:"recordedAt"`
	Published     bool      `json:"published"`
	FHIRID        string    `json:"fhirId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// GeneratedApp is a saved mini-dashboard configuration built from a BYOD
// session's metrics.
type GeneratedApp struct {
	ID            uuid.UUID `json:"id"`
	ByodSessionID uuid.UUID `json:"byodSessionId"`
	Name          string    `json:"name"`
	ChartType     string    `json:"chartType"`
	Metrics       []string  `json:"metrics"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ImportRequest carries device-export rows for parsing.
type ImportRequest struct {
	SessionID string      `json:"sessionId"`
	FileName  string      `json:"fileName"`
	Source    string      `json:"source"`
	Rows      []MetricRow `json:"rows"`
}

type MetricRow struct {
	MetricType string  `json:"metricType"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	RecordedAt string  `json:"recordedAt"`
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Success       bool      `json:"success"`
	ByodSessionID uuid.UUID `json:"byodSessionId,omitempty"`
	Imported      int       `json:"imported"`
	Skipped       int       `json:"skipped"`
	Message       string    `json:"message,omitempty"`
}

// PublishRequest asks for a session's observations to be pushed to FHIR.
type PublishRequest struct {
	ByodSessionID uuid.UUID `json:"byodSessionId"`
	BaseURL       string    `json:"baseUrl"`
	PatientID     string    `json:"patientId"`
}

// PublishResult reports how many observations were pushed.
type PublishResult struct {
	Success   bool     `json:"success"`
	Published int      `json:"published"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
	Message   string   `json:"message,omitempty"`
}

// GenerateAppRequest asks for a dashboard config to be saved.
type GenerateAppRequest struct {
	ByodSessionID uuid.UUID `json:"byodSessionId"`
	Name          string    `json:"name"`
	ChartType     string    `json:"chartType"`
	Metrics       []string  `json:"metrics"`
}
