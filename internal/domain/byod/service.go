package byod

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fhirbootcamp/api/internal/domain/lab"
	"github.com/fhirbootcamp/api/internal/platform/fhir"
)

// ObservationPublisher is the slice of the FHIR client the publish flow needs.
type ObservationPublisher interface {
	CreateResource(ctx context.Context, baseURL, resourceType string, resource map[string]interface{}) (*fhir.CreateResult, error)
}

var validSources = map[string]bool{
	SourceAppleHealth: true,
	SourceGoogleFit:   true,
	SourceManual:      true,
}

type Service struct {
	sessions     SessionRepository
	observations ObservationRepository
	apps         AppRepository
	publisher    ObservationPublisher
	labs         *lab.Service
	log          zerolog.Logger

	// publishHook fires once per publish run that pushed at least one
	// observation, with the lab session id.
	publishHook func(ctx context.Context, labSessionID string, published int)
}

func NewService(sessions SessionRepository, observations ObservationRepository, apps AppRepository, publisher ObservationPublisher, labs *lab.Service, log zerolog.Logger) *Service {
	return &Service{
		sessions:     sessions,
		observations: observations,
		apps:         apps,
		publisher:    publisher,
		labs:         labs,
		log:          log,
	}
}

func (s *Service) SetPublishHook(hook func(ctx context.Context, labSessionID string, published int)) {
	s.publishHook = hook
}

// Import parses metric rows into ByodObservations. Rows with unknown metric
// types or non-positive values are skipped, not fatal.
func (s *Service) Import(ctx context.Context, req ImportRequest) *ImportResult {
	if req.SessionID == "" {
		return &ImportResult{Success: false, Message: "sessionId is required"}
	}
	if !validSources[req.Source] {
		return &ImportResult{Success: false, Message: fmt.Sprintf("unsupported source: %s", req.Source)}
	}
	if len(req.Rows) == 0 {
		return &ImportResult{Success: false, Message: "no rows to import"}
	}

	session := &ByodSession{
		LabSessionID: req.SessionID,
		FileName:     req.FileName,
		Source:       req.Source,
	}

	var parsed []*ByodObservation
	skipped := 0
	for _, row := range req.Rows {
		metricType := strings.ToLower(strings.TrimSpace(row.MetricType))
		if !KnownMetric(metricType) || row.Value <= 0 || row.RecordedAt == "" {
			skipped++
			continue
		}
		unit := row.Unit
		if unit == "" {
			unit = metricCodings[metricType].Unit
		}
		parsed = append(parsed, &ByodObservation{
			MetricType: metricType,
			Value:      row.Value,
			Unit:       unit,
			RecordedAt: row.RecordedAt,
		})
	}

	if len(parsed) == 0 {
		return &ImportResult{Success: false, Skipped: skipped, Message: "no usable rows in import"}
	}

	session.RowCount = len(parsed)
	if err := s.sessions.Create(ctx, session); err != nil {
		return &ImportResult{Success: false, Message: err.Error()}
	}
	for _, o := range parsed {
		o.ByodSessionID = session.ID
	}
	if err := s.observations.CreateBatch(ctx, parsed); err != nil {
		return &ImportResult{Success: false, Message: err.Error()}
	}

	s.log.Info().
		Str("session_id", req.SessionID).
		Str("source", req.Source).
		Int("imported", len(parsed)).
		Int("skipped", skipped).
		Msg("byod rows imported")

	return &ImportResult{
		Success:       true,
		ByodSessionID: session.ID,
		Imported:      len(parsed),
		Skipped:       skipped,
	}
}

// Publish converts a session's unpublished observations to FHIR Observations
// and POSTs each one. Already-published rows are skipped so the operation can
// be re-run after partial failures.
func (s *Service) Publish(ctx context.Context, req PublishRequest) *PublishResult {
	if req.ByodSessionID == uuid.Nil {
		return &PublishResult{Success: false, Message: "byodSessionId is required"}
	}
	if req.BaseURL == "" {
		return &PublishResult{Success: false, Message: "baseUrl is required"}
	}
	if req.PatientID == "" {
		return &PublishResult{Success: false, Message: "patientId is required"}
	}

	session, err := s.sessions.GetByID(ctx, req.ByodSessionID)
	if err != nil {
		return &PublishResult{Success: false, Message: err.Error()}
	}

	observations, err := s.observations.ListBySession(ctx, session.ID)
	if err != nil {
		return &PublishResult{Success: false, Message: err.Error()}
	}

	base := strings.TrimRight(req.BaseURL, "/")
	published := 0
	failed := 0
	var errs []string
	for _, o := range observations {
		if o.Published {
			continue
		}
		resource := ToFHIRObservation(o, req.PatientID)
		created, err := s.publisher.CreateResource(ctx, base, "Observation", resource)
		if err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("%s %s: %v", o.MetricType, o.RecordedAt, err))
			continue
		}
		if err := s.observations.MarkPublished(ctx, o.ID, created.ID); err != nil {
			failed++
			errs = append(errs, err.Error())
			continue
		}
		published++
	}

	if published == 0 {
		msg := "no unpublished observations in session"
		if failed > 0 {
			msg = "all publishes failed"
		}
		return &PublishResult{Success: false, Failed: failed, Errors: errs, Message: msg}
	}

	displayName := session.FileName
	if displayName == "" {
		displayName = session.Source
	}
	// The publish already landed; a failed artifact record is not fatal.
	if _, err := s.labs.RecordArtifact(ctx, &lab.Artifact{
		SessionID:   session.LabSessionID,
		LabDay:      3,
		Kind:        lab.ArtifactByodConverted,
		DisplayName: fmt.Sprintf("%s (%d observations)", displayName, published),
	}, nil); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.LabSessionID).Msg("byod artifact record failed")
	}

	if s.publishHook != nil {
		s.publishHook(ctx, session.LabSessionID, published)
	}

	s.log.Info().
		Str("session_id", session.LabSessionID).
		Int("published", published).
		Int("failed", failed).
		Msg("byod observations published")

	return &PublishResult{Success: true, Published: published, Failed: failed, Errors: errs}
}

// GenerateApp persists a dashboard configuration for a session.
func (s *Service) GenerateApp(ctx context.Context, req GenerateAppRequest) (*GeneratedApp, error) {
	if req.ByodSessionID == uuid.Nil {
		return nil, fmt.Errorf("byodSessionId is required")
	}
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if _, err := s.sessions.GetByID(ctx, req.ByodSessionID); err != nil {
		return nil, err
	}

	chartType := req.ChartType
	if chartType == "" {
		chartType = "line"
	}
	for _, m := range req.Metrics {
		if !KnownMetric(m) {
			return nil, fmt.Errorf("unknown metric: %s", m)
		}
	}

	app := &GeneratedApp{
		ByodSessionID: req.ByodSessionID,
		Name:          req.Name,
		ChartType:     chartType,
		Metrics:       req.Metrics,
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Session returns a BYOD session with its observations and generated apps.
func (s *Service) Session(ctx context.Context, id uuid.UUID) (*ByodSession, []*ByodObservation, []*GeneratedApp, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	observations, err := s.observations.ListBySession(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	apps, err := s.apps.ListBySession(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	return session, observations, apps, nil
}

// Sessions lists a lab session's BYOD imports.
func (s *Service) Sessions(ctx context.Context, labSessionID string) ([]*ByodSession, error) {
	if labSessionID == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	return s.sessions.ListByLabSession(ctx, labSessionID)
}

// ResetAll clears all BYOD state. Used by the admin class reset.
func (s *Service) ResetAll(ctx context.Context) (int, error) {
	apps, err := s.apps.ResetAll(ctx)
	if err != nil {
		return 0, err
	}
	obs, err := s.observations.ResetAll(ctx)
	if err != nil {
		return apps, err
	}
	sessions, err := s.sessions.ResetAll(ctx)
	if err != nil {
		return apps + obs, err
	}
	return apps + obs + sessions, nil
}

// ToFHIRObservation converts a parsed metric row into a FHIR Observation
// targeting the given patient.
func ToFHIRObservation(o *ByodObservation, patientID string) map[string]interface{} {
	coding := metricCodings[o.MetricType]
	return map[string]interface{}{
		"resourceType": "Observation",
		"status":       "final",
		"code": fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System:  "http://loinc.org",
				Code:    coding.LoincCode,
				Display: coding.Display,
			}},
			Text: coding.Display,
		},
		"subject": fhir.Reference{
			Reference: fhir.FormatReference("Patient", patientID),
		},
		"effectiveDateTime": o.RecordedAt,
		"valueQuantity": fhir.Quantity{
			Value:  o.Value,
			Unit:   o.Unit,
			System: "http://unitsofmeasure.org",
			Code:   coding.Unit,
		},
	}
}
