package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fhirbootcamp/api/internal/domain/lab"
	"github.com/fhirbootcamp/api/internal/platform/fhir"
)

// FHIRGateway is the slice of the FHIR client the pipelines need.
type FHIRGateway interface {
	PostTransaction(ctx context.Context, baseURL string, bundle map[string]interface{}) (*fhir.TransactionResult, error)
	CreateResource(ctx context.Context, baseURL, resourceType string, resource map[string]interface{}) (*fhir.CreateResult, error)
	SearchResources(ctx context.Context, baseURL, resourceType string, params url.Values) (*fhir.SearchResult, error)
	ReadResource(ctx context.Context, baseURL, resourceType, id string) (map[string]interface{}, error)
}

type Service struct {
	bundles BundleRepository
	labs    *lab.Service
	gateway FHIRGateway
	log     zerolog.Logger

	// publishHook fires after each successful Observation publish.
	publishHook func(ctx context.Context, sessionID, resourceID string)
}

func NewService(bundles BundleRepository, labs *lab.Service, gateway FHIRGateway, log zerolog.Logger) *Service {
	return &Service{bundles: bundles, labs: labs, gateway: gateway, log: log}
}

// SetPublishHook wires a callback invoked after each successful publish.
// Used for gamification without coupling the pipeline to the points ledger.
func (s *Service) SetPublishHook(hook func(ctx context.Context, sessionID, resourceID string)) {
	s.publishHook = hook
}

// UploadBundle forwards a transaction bundle to the destination server. When
// the transaction POST fails it falls back to creating each entry resource
// individually; the result then carries fallbackUsed plus any per-entry
// errors. A BundleRecord is persisted only when at least one resource was
// created. Structured failures are returned in the result, not as an error.
func (s *Service) UploadBundle(ctx context.Context, req UploadRequest) *UploadResult {
	if req.SessionID == "" {
		return &UploadResult{Success: false, Message: "sessionId is required"}
	}
	if req.BaseURL == "" {
		return &UploadResult{Success: false, Message: "baseUrl is required"}
	}
	if len(req.Bundle) == 0 {
		return &UploadResult{Success: false, Message: "bundle is required"}
	}

	bundle, err := fhir.ParseBundle(req.Bundle)
	if err != nil {
		return &UploadResult{Success: false, Message: fmt.Sprintf("invalid bundle: %v", err)}
	}
	if len(bundle.Entries) == 0 {
		return &UploadResult{Success: false, Message: "bundle has no entries"}
	}

	base := strings.TrimRight(req.BaseURL, "/")

	txResult, txErr := s.gateway.PostTransaction(ctx, base, bundle.ToMap())
	if txErr == nil {
		return s.recordUpload(ctx, req, bundle, txResult.CreatedIDs, false, nil)
	}

	s.log.Warn().Err(txErr).Str("base_url", base).
		Msg("transaction post failed, falling back to per-resource create")

	var createdIDs []string
	var entryErrors []string
	for i, entry := range bundle.Entries {
		resourceType := entry.ResourceType()
		if resourceType == "" {
			entryErrors = append(entryErrors, fmt.Sprintf("entry %d: missing resourceType", i))
			continue
		}
		created, err := s.gateway.CreateResource(ctx, base, resourceType, entry.Resource)
		if err != nil {
			entryErrors = append(entryErrors, fmt.Sprintf("entry %d (%s): %v", i, resourceType, err))
			continue
		}
		createdIDs = append(createdIDs, created.ID)
	}

	if len(createdIDs) == 0 {
		return &UploadResult{
			Success:      false,
			FallbackUsed: true,
			Errors:       entryErrors,
			Message:      fmt.Sprintf("transaction failed and no resources could be created individually: %v", txErr),
		}
	}

	return s.recordUpload(ctx, req, bundle, createdIDs, true, entryErrors)
}

func (s *Service) recordUpload(ctx context.Context, req UploadRequest, bundle *fhir.Bundle, createdIDs []string, fallback bool, entryErrors []string) *UploadResult {
	record := &BundleRecord{
		SessionID:     req.SessionID,
		FileName:      req.FileName,
		TargetURL:     strings.TrimRight(req.BaseURL, "/"),
		ResourceCount: len(bundle.Entries),
		CreatedIDs:    createdIDs,
		FallbackUsed:  fallback,
	}
	if err := s.bundles.Create(ctx, record); err != nil {
		return &UploadResult{Success: false, Message: err.Error()}
	}

	displayName := req.FileName
	if displayName == "" {
		displayName = fmt.Sprintf("Bundle (%d resources)", len(createdIDs))
	}
	// The upload already succeeded; a failed artifact record is not fatal.
	if _, err := s.labs.RecordArtifact(ctx, &lab.Artifact{
		SessionID:   req.SessionID,
		LabDay:      1,
		Kind:        lab.ArtifactBundleUpload,
		DisplayName: displayName,
	}, nil); err != nil {
		s.log.Warn().Err(err).Str("session_id", req.SessionID).Msg("bundle artifact record failed")
	}

	s.log.Info().
		Str("session_id", req.SessionID).
		Int("resource_count", record.ResourceCount).
		Int("created", len(createdIDs)).
		Bool("fallback_used", fallback).
		Msg("bundle uploaded")

	return &UploadResult{
		Success:       true,
		BundleID:      record.ID,
		ResourceCount: record.ResourceCount,
		CreatedIDs:    createdIDs,
		FallbackUsed:  fallback,
		Errors:        entryErrors,
	}
}

// Bundles lists a session's upload records.
func (s *Service) Bundles(ctx context.Context, sessionID string) ([]*BundleRecord, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	return s.bundles.ListBySession(ctx, sessionID)
}

// ResetAll drops every recorded bundle upload.
func (s *Service) ResetAll(ctx context.Context) (int, error) {
	return s.bundles.ResetAll(ctx)
}

// ExportCSV fetches resources for a patient, flattens them into the fixed
// column set for the resource type, writes the CSV as an artifact, and
// returns the outcome. An empty result set is a structured failure and
// leaves no artifact behind.
func (s *Service) ExportCSV(ctx context.Context, req ExportRequest) *ExportResult {
	if req.SessionID == "" {
		return &ExportResult{Success: false, Message: "sessionId is required"}
	}
	if req.BaseURL == "" {
		return &ExportResult{Success: false, Message: "baseUrl is required"}
	}
	if req.PatientID == "" {
		return &ExportResult{Success: false, Message: "patientId is required"}
	}
	if req.ResourceType == "" {
		return &ExportResult{Success: false, Message: "resourceType is required"}
	}

	base := strings.TrimRight(req.BaseURL, "/")

	resources, err := s.fetchForExport(ctx, base, req.ResourceType, req.PatientID)
	if err != nil {
		return &ExportResult{Success: false, Message: err.Error()}
	}
	if len(resources) == 0 {
		return &ExportResult{Success: false, Message: "no data to export"}
	}

	content, err := buildCSV(req.ResourceType, resources)
	if err != nil {
		return &ExportResult{Success: false, Message: err.Error()}
	}

	fileName := fmt.Sprintf("%s_%s_%s.csv",
		strings.ToLower(req.ResourceType), req.PatientID, time.Now().UTC().Format("20060102T150405"))
	artifact, err := s.labs.RecordArtifact(ctx, &lab.Artifact{
		SessionID:   req.SessionID,
		LabDay:      2,
		Kind:        lab.ArtifactCSVExport,
		DisplayName: fileName,
		ContentType: "text/csv",
	}, content)
	if err != nil {
		return &ExportResult{Success: false, Message: err.Error()}
	}

	s.log.Info().
		Str("session_id", req.SessionID).
		Str("resource_type", req.ResourceType).
		Int("rows", len(resources)).
		Msg("csv export written")

	return &ExportResult{
		Success:    true,
		ArtifactID: artifact.ID,
		FileName:   fileName,
		RowCount:   len(resources),
	}
}

// fetchForExport reads the patient directly for Patient exports and searches
// by patient reference for everything else.
func (s *Service) fetchForExport(ctx context.Context, baseURL, resourceType, patientID string) ([]map[string]interface{}, error) {
	if resourceType == "Patient" {
		resource, err := s.gateway.ReadResource(ctx, baseURL, "Patient", patientID)
		if err != nil {
			return nil, err
		}
		return []map[string]interface{}{resource}, nil
	}

	params := url.Values{}
	params.Set("patient", patientID)
	result, err := s.gateway.SearchResources(ctx, baseURL, resourceType, params)
	if err != nil {
		return nil, err
	}
	return result.Resources, nil
}

// PublishObservation builds a single Observation from the request fields and
// POSTs it to the destination server, recording an artifact on success.
func (s *Service) PublishObservation(ctx context.Context, req PublishRequest) *PublishResult {
	if req.SessionID == "" {
		return &PublishResult{Success: false, Message: "sessionId is required"}
	}
	if req.BaseURL == "" {
		return &PublishResult{Success: false, Message: "baseUrl is required"}
	}
	if req.PatientID == "" {
		return &PublishResult{Success: false, Message: "patientId is required"}
	}
	if req.Code == "" {
		return &PublishResult{Success: false, Message: "code is required"}
	}

	base := strings.TrimRight(req.BaseURL, "/")
	observation := BuildObservation(req)

	created, err := s.gateway.CreateResource(ctx, base, "Observation", observation)
	if err != nil {
		return &PublishResult{Success: false, Message: err.Error()}
	}

	resourceURL := fmt.Sprintf("%s/Observation/%s", base, created.ID)
	artifact, err := s.labs.RecordArtifact(ctx, &lab.Artifact{
		SessionID:   req.SessionID,
		LabDay:      3,
		Kind:        lab.ArtifactObservation,
		DisplayName: fmt.Sprintf("Observation %s (%s)", created.ID, req.Code),
		ResourceID:  created.ID,
		ResourceURL: resourceURL,
	}, nil)
	if err != nil {
		return &PublishResult{Success: false, Message: err.Error()}
	}

	if s.publishHook != nil {
		s.publishHook(ctx, req.SessionID, created.ID)
	}

	s.log.Info().
		Str("session_id", req.SessionID).
		Str("resource_id", created.ID).
		Msg("observation published")

	return &PublishResult{
		Success:     true,
		ResourceID:  created.ID,
		ResourceURL: resourceURL,
		ArtifactID:  artifact.ID,
	}
}

// BuildObservation assembles the FHIR Observation payload for a publish
// request. LOINC is assumed for the coding system.
func BuildObservation(req PublishRequest) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "Observation",
		"status":       "final",
		"code": fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System:  "http://loinc.org",
				Code:    req.Code,
				Display: req.Display,
			}},
			Text: req.Display,
		},
		"subject": fhir.Reference{
			Reference: fhir.FormatReference("Patient", req.PatientID),
		},
		"effectiveDateTime": time.Now().UTC().Format(time.RFC3339),
		"valueQuantity": fhir.Quantity{
			Value:  req.Value,
			Unit:   req.Unit,
			System: "http://unitsofmeasure.org",
			Code:   req.Unit,
		},
	}
}
