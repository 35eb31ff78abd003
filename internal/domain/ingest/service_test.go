package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fhirbootcamp/api/internal/domain/lab"
	"github.com/fhirbootcamp/api/internal/platform/artifacts"
	"github.com/fhirbootcamp/api/internal/platform/fhir"
)

// fakeGateway scripts FHIR client behavior per test.
type fakeGateway struct {
	transactionResult *fhir.TransactionResult
	transactionErr    error

	createResults map[string]*fhir.CreateResult // keyed by resourceType
	createErrs    map[string]error
	createCalls   []string

	searchResult *fhir.SearchResult
	searchErr    error

	readResult map[string]interface{}
	readErr    error
}

func (f *fakeGateway) PostTransaction(_ context.Context, _ string, _ map[string]interface{}) (*fhir.TransactionResult, error) {
	if f.transactionErr != nil {
		return nil, f.transactionErr
	}
	return f.transactionResult, nil
}

func (f *fakeGateway) CreateResource(_ context.Context, _ string, resourceType string, _ map[string]interface{}) (*fhir.CreateResult, error) {
	f.createCalls = append(f.createCalls, resourceType)
	if err, ok := f.createErrs[resourceType]; ok {
		return nil, err
	}
	if res, ok := f.createResults[resourceType]; ok {
		return res, nil
	}
	return nil, fmt.Errorf("unexpected create for %s", resourceType)
}

func (f *fakeGateway) SearchResources(_ context.Context, _ string, _ string, _ url.Values) (*fhir.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResult, nil
}

func (f *fakeGateway) ReadResource(_ context.Context, _ string, _ string, _ string) (map[string]interface{}, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.readResult, nil
}

func newIngestFixture(t *testing.T, gw FHIRGateway) (*Service, *lab.Service) {
	t.Helper()
	files, err := artifacts.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("artifacts.NewStore: %v", err)
	}
	labs := lab.NewService(lab.NewMemProgressRepository(), lab.NewMemArtifactRepository(), files)
	return NewService(NewMemBundleRepository(), labs, gw, zerolog.Nop()), labs
}

const testBundle = `{
	"resourceType": "Bundle",
	"type": "transaction",
	"entry": [
		{"resource": {"resourceType": "Patient", "name": [{"family": "Tan"}]}},
		{"resource": {"resourceType": "Observation", "status": "final"}}
	]
}`

func TestUploadBundle_TransactionSuccess(t *testing.T) {
	gw := &fakeGateway{
		transactionResult: &fhir.TransactionResult{CreatedIDs: []string{"pat-1", "obs-1"}},
	}
	svc, labs := newIngestFixture(t, gw)

	result := svc.UploadBundle(context.Background(), UploadRequest{
		SessionID: "s", BaseURL: "https://fhir.example/baseR4", FileName: "demo.json",
		Bundle: json.RawMessage(testBundle),
	})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.FallbackUsed {
		t.Error("transaction path should not report fallbackUsed")
	}
	if len(result.CreatedIDs) != 2 {
		t.Errorf("createdIds = %v, want 2 ids", result.CreatedIDs)
	}
	if result.ResourceCount != 2 {
		t.Errorf("resourceCount = %d, want 2", result.ResourceCount)
	}

	records, err := svc.Bundles(context.Background(), "s")
	if err != nil {
		t.Fatalf("Bundles failed: %v", err)
	}
	if len(records) != 1 || records[0].FileName != "demo.json" {
		t.Errorf("unexpected bundle records: %+v", records)
	}

	arts, err := labs.Artifacts(context.Background(), "s", 1)
	if err != nil {
		t.Fatalf("Artifacts failed: %v", err)
	}
	if len(arts) != 1 || arts[0].Kind != lab.ArtifactBundleUpload {
		t.Fatalf("expected a bundle upload artifact, got %+v", arts)
	}
	if arts[0].DisplayName != "demo.json" {
		t.Errorf("artifact displayName = %q, want demo.json", arts[0].DisplayName)
	}
}

func TestUploadBundle_FallbackOnTransactionFailure(t *testing.T) {
	gw := &fakeGateway{
		transactionErr: &fhir.UpstreamError{StatusCode: 400, Body: "transaction not supported"},
		createResults: map[string]*fhir.CreateResult{
			"Patient":     {ID: "pat-7"},
			"Observation": {ID: "obs-7"},
		},
	}
	svc, _ := newIngestFixture(t, gw)

	result := svc.UploadBundle(context.Background(), UploadRequest{
		SessionID: "s", BaseURL: "https://fhir.example/baseR4",
		Bundle: json.RawMessage(testBundle),
	})

	if !result.Success {
		t.Fatalf("expected fallback success, got %q", result.Message)
	}
	if !result.FallbackUsed {
		t.Error("expected fallbackUsed=true")
	}
	if len(result.CreatedIDs) != 2 {
		t.Errorf("createdIds = %v, want 2", result.CreatedIDs)
	}
	if len(gw.createCalls) != 2 {
		t.Errorf("expected 2 per-resource creates, got %v", gw.createCalls)
	}
}

func TestUploadBundle_FallbackPartialFailure(t *testing.T) {
	gw := &fakeGateway{
		transactionErr: fmt.Errorf("connection reset"),
		createResults:  map[string]*fhir.CreateResult{"Patient": {ID: "pat-7"}},
		createErrs:     map[string]error{"Observation": &fhir.UpstreamError{StatusCode: 422, Body: "invalid"}},
	}
	svc, _ := newIngestFixture(t, gw)

	result := svc.UploadBundle(context.Background(), UploadRequest{
		SessionID: "s", BaseURL: "https://fhir.example/baseR4",
		Bundle: json.RawMessage(testBundle),
	})

	if !result.Success {
		t.Fatal("one successful create should still count as success")
	}
	if !result.FallbackUsed {
		t.Error("expected fallbackUsed=true")
	}
	if len(result.CreatedIDs) != 1 || result.CreatedIDs[0] != "pat-7" {
		t.Errorf("createdIds = %v, want [pat-7]", result.CreatedIDs)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "Observation") {
		t.Errorf("errors = %v, want one Observation entry error", result.Errors)
	}
}

func TestUploadBundle_FallbackTotalFailure(t *testing.T) {
	gw := &fakeGateway{
		transactionErr: fmt.Errorf("connection reset"),
		createErrs: map[string]error{
			"Patient":     fmt.Errorf("boom"),
			"Observation": fmt.Errorf("boom"),
		},
	}
	svc, _ := newIngestFixture(t, gw)

	result := svc.UploadBundle(context.Background(), UploadRequest{
		SessionID: "s", BaseURL: "https://fhir.example/baseR4",
		Bundle: json.RawMessage(testBundle),
	})

	if result.Success {
		t.Fatal("expected failure when nothing could be created")
	}
	if !result.FallbackUsed {
		t.Error("expected fallbackUsed=true on failed fallback")
	}

	records, _ := svc.Bundles(context.Background(), "s")
	if len(records) != 0 {
		t.Error("no bundle record should be persisted when nothing was created")
	}
}

func TestUploadBundle_InvalidPayloads(t *testing.T) {
	svc, _ := newIngestFixture(t, &fakeGateway{})
	ctx := context.Background()

	cases := []UploadRequest{
		{BaseURL: "https://x", Bundle: json.RawMessage(testBundle)},
		{SessionID: "s", Bundle: json.RawMessage(testBundle)},
		{SessionID: "s", BaseURL: "https://x"},
		{SessionID: "s", BaseURL: "https://x", Bundle: json.RawMessage(`{"resourceType":"Patient"}`)},
		{SessionID: "s", BaseURL: "https://x", Bundle: json.RawMessage(`{"resourceType":"Bundle","type":"transaction","entry":[]}`)},
		{SessionID: "s", BaseURL: "https://x", Bundle: json.RawMessage(`not json`)},
	}
	for i, req := range cases {
		result := svc.UploadBundle(ctx, req)
		if result.Success {
			t.Errorf("case %d: expected structured failure", i)
		}
		if result.Message == "" {
			t.Errorf("case %d: expected failure message", i)
		}
	}
}

func TestExportCSV_Observations(t *testing.T) {
	gw := &fakeGateway{
		searchResult: &fhir.SearchResult{
			Total: 2,
			Resources: []map[string]interface{}{
				{
					"id": "obs-1", "resourceType": "Observation", "status": "final",
					"code": map[string]interface{}{
						"coding": []interface{}{map[string]interface{}{"code": "8867-4", "display": "Heart rate"}},
					},
					"valueQuantity":     map[string]interface{}{"value": 72.0, "unit": "beats/min"},
					"effectiveDateTime": "2026-03-01T10:00:00Z",
				},
				{
					"id": "obs-2", "resourceType": "Observation", "status": "final",
					"code":          map[string]interface{}{"text": "Body weight"},
					"valueQuantity": map[string]interface{}{"value": 81.5, "unit": "kg"},
				},
			},
		},
	}
	svc, labs := newIngestFixture(t, gw)

	result := svc.ExportCSV(context.Background(), ExportRequest{
		SessionID: "s", BaseURL: "https://fhir.example/baseR4",
		PatientID: "pat-1", ResourceType: "Observation",
	})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.RowCount != 2 {
		t.Errorf("rowCount = %d, want 2", result.RowCount)
	}

	arts, err := labs.Artifacts(context.Background(), "s", 0)
	if err != nil {
		t.Fatalf("Artifacts failed: %v", err)
	}
	if len(arts) != 1 || arts[0].Kind != lab.ArtifactCSVExport {
		t.Fatalf("unexpected artifacts: %+v", arts)
	}
}

func TestExportCSV_NoData(t *testing.T) {
	gw := &fakeGateway{searchResult: &fhir.SearchResult{Total: 0}}
	svc, labs := newIngestFixture(t, gw)

	result := svc.ExportCSV(context.Background(), ExportRequest{
		SessionID: "s", BaseURL: "https://fhir.example/baseR4",
		PatientID: "pat-1", ResourceType: "Encounter",
	})

	if result.Success {
		t.Fatal("expected failure for empty result set")
	}
	if result.Message != "no data to export" {
		t.Errorf("message = %q, want %q", result.Message, "no data to export")
	}

	arts, _ := labs.Artifacts(context.Background(), "s", 0)
	if len(arts) != 0 {
		t.Error("no artifact should be recorded for an empty export")
	}
}

func TestExportCSV_PatientUsesDirectRead(t *testing.T) {
	gw := &fakeGateway{
		readResult: map[string]interface{}{
			"id": "pat-1", "resourceType": "Patient", "gender": "female", "birthDate": "1984-02-11",
			"name": []interface{}{map[string]interface{}{
				"family": "Okafor", "given": []interface{}{"Adaeze", "May"},
			}},
		},
	}
	svc, _ := newIngestFixture(t, gw)

	result := svc.ExportCSV(context.Background(), ExportRequest{
		SessionID: "s", BaseURL: "https://fhir.example/baseR4",
		PatientID: "pat-1", ResourceType: "Patient",
	})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.RowCount != 1 {
		t.Errorf("rowCount = %d, want 1", result.RowCount)
	}
}

func TestExportCSV_UpstreamErrorSurfaced(t *testing.T) {
	gw := &fakeGateway{searchErr: &fhir.UpstreamError{StatusCode: 500, Body: "server exploded"}}
	svc, _ := newIngestFixture(t, gw)

	result := svc.ExportCSV(context.Background(), ExportRequest{
		SessionID: "s", BaseURL: "https://fhir.example/baseR4",
		PatientID: "pat-1", ResourceType: "Observation",
	})

	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Message, "server exploded") {
		t.Errorf("expected upstream body in message, got %q", result.Message)
	}
}

func TestPublishObservation(t *testing.T) {
	gw := &fakeGateway{
		createResults: map[string]*fhir.CreateResult{"Observation": {ID: "obs-42"}},
	}
	svc, labs := newIngestFixture(t, gw)

	var hookSession string
	svc.SetPublishHook(func(_ context.Context, sessionID, _ string) { hookSession = sessionID })

	result := svc.PublishObservation(context.Background(), PublishRequest{
		SessionID: "s", BaseURL: "https://fhir.example/baseR4/",
		PatientID: "pat-1", Code: "8867-4", Display: "Heart rate", Value: 72, Unit: "beats/min",
	})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.ResourceID != "obs-42" {
		t.Errorf("resourceId = %q, want obs-42", result.ResourceID)
	}
	if result.ResourceURL != "https://fhir.example/baseR4/Observation/obs-42" {
		t.Errorf("resourceUrl = %q", result.ResourceURL)
	}
	if hookSession != "s" {
		t.Error("publish hook should fire on success")
	}

	arts, _ := labs.Artifacts(context.Background(), "s", 0)
	if len(arts) != 1 || arts[0].ResourceID != "obs-42" {
		t.Errorf("unexpected artifacts: %+v", arts)
	}
}

func TestPublishObservation_UpstreamFailure(t *testing.T) {
	gw := &fakeGateway{
		createErrs: map[string]error{"Observation": &fhir.UpstreamError{StatusCode: 422, Body: "missing subject"}},
	}
	svc, labs := newIngestFixture(t, gw)

	var hookFired bool
	svc.SetPublishHook(func(_ context.Context, _, _ string) { hookFired = true })

	result := svc.PublishObservation(context.Background(), PublishRequest{
		SessionID: "s", BaseURL: "https://fhir.example/baseR4",
		PatientID: "pat-1", Code: "8867-4", Value: 72,
	})

	if result.Success {
		t.Fatal("expected failure")
	}
	if hookFired {
		t.Error("hook must not fire on failure")
	}
	arts, _ := labs.Artifacts(context.Background(), "s", 0)
	if len(arts) != 0 {
		t.Error("no artifact should be recorded on failure")
	}
}

func TestBuildObservation_Shape(t *testing.T) {
	obs := BuildObservation(PublishRequest{
		PatientID: "pat-1", Code: "29463-7", Display: "Body weight", Value: 81.5, Unit: "kg",
	})

	if obs["resourceType"] != "Observation" || obs["status"] != "final" {
		t.Errorf("unexpected envelope: %v", obs)
	}
	subject := obs["subject"].(fhir.Reference)
	if subject.Reference != "Patient/pat-1" {
		t.Errorf("subject = %+v", subject)
	}
	quantity := obs["valueQuantity"].(fhir.Quantity)
	if quantity.Value != 81.5 || quantity.Unit != "kg" {
		t.Errorf("valueQuantity = %+v", quantity)
	}
}
