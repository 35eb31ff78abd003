package lab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/fhirbootcamp/api/internal/platform/artifacts"
)

func newHandlerFixture(t *testing.T) (*Handler, *Service, *echo.Echo) {
	t.Helper()
	files, err := artifacts.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("artifacts.NewStore: %v", err)
	}
	svc := NewService(NewMemProgressRepository(), NewMemArtifactRepository(), files)
	return NewHandler(svc), svc, echo.New()
}

func TestHandler_UpsertAndListProgress(t *testing.T) {
	h, _, e := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/lab/progress",
		strings.NewReader(`{"sessionId":"sess-1","labDay":1,"stepName":"ping-server","completed":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.UpsertProgress(e.NewContext(req, rec)); err != nil {
		t.Fatalf("UpsertProgress returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/lab/progress?sessionId=sess-1", nil)
	rec = httptest.NewRecorder()
	if err := h.ListProgress(e.NewContext(req, rec)); err != nil {
		t.Fatalf("ListProgress returned error: %v", err)
	}

	var records []LabProgress
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(records) != 1 || records[0].StepName != "ping-server" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestHandler_ListProgressRequiresSession(t *testing.T) {
	h, _, e := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/lab/progress", nil)
	rec := httptest.NewRecorder()
	err := h.ListProgress(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_DownloadArtifact(t *testing.T) {
	h, svc, e := newHandlerFixture(t)

	a, err := svc.RecordArtifact(context.Background(), &Artifact{
		SessionID: "s", LabDay: 2, Kind: ArtifactCSVExport,
		DisplayName: "export.csv", ContentType: "text/csv",
	}, []byte("id\npat-1\n"))
	if err != nil {
		t.Fatalf("RecordArtifact failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/lab/artifacts/"+a.ID.String()+"/download", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())
	if err := h.DownloadArtifact(c); err != nil {
		t.Fatalf("DownloadArtifact returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(got, "export.csv") {
		t.Errorf("Content-Disposition = %q, want filename export.csv", got)
	}
	if rec.Body.String() != "id\npat-1\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestHandler_DownloadUnknownArtifact(t *testing.T) {
	h, _, e := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/lab/artifacts/x/download", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("00000000-0000-0000-0000-000000000000")
	err := h.DownloadArtifact(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404 HTTPError, got %v", err)
	}
}
