package servers

import (
	"time"

	"github.com/google/uuid"
)

// FhirServer is a registry entry for a FHIR endpoint students can target
// during labs. Entries are seeded at startup and treated as reference data.
type FhirServer struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	BaseURL     string    `json:"baseUrl"`
	FHIRVersion string    `json:"fhirVersion"`
	IsPublic    bool      `json:"isPublic"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PingResult reports the outcome of a capability probe against a FHIR base URL.
type PingResult struct {
	Success     bool   `json:"success"`
	FHIRVersion string `json:"fhirVersion,omitempty"`
	ServerName  string `json:"serverName,omitempty"`
	LatencyMs   int64  `json:"latencyMs,omitempty"`
	Message     string `json:"message,omitempty"`
}

// EnvironmentSettings is the persisted FHIR environment preference.
type EnvironmentSettings struct {
	UseLocalServer bool `json:"useLocalServer"`
}
