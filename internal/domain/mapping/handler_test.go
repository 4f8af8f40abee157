package mapping

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/healthmap/internal/platform/fhir"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(newTestService())
	e := echo.New()
	return h, e
}

func TestHandler_CreateMapping(t *testing.T) {
	h, e := newTestHandler()
	body := `{"document":{"id":"doc-7","category":"prescription","uploadedAt":"2024-03-01T09:30:00Z","patientId":"p-1"},
		"entities":[{"type":"medication","value":"Paracetamol 500mg","confidence":0.97,"position":{"start":0,"end":17},
		"code":{"system":"SFDA-MEDICATIONS","code":"PAR500"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateMapping(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got Result
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Resource.ResourceType != "MedicationRequest" || got.MappingQuality != 100 {
		t.Errorf("unexpected result %s quality=%d", got.Resource.ResourceType, got.MappingQuality)
	}
}

func TestHandler_CreateMapping_MissingCategory(t *testing.T) {
	h, e := newTestHandler()
	body := `{"document":{"id":"doc-7"},"entities":[]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateMapping(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var oo fhir.OperationOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &oo); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if oo.Issue[0].Code != fhir.IssueTypeRequired || len(oo.Issue[0].Expression) != 1 || oo.Issue[0].Expression[0] != "document.category" {
		t.Errorf("unexpected outcome %+v", oo.Issue[0])
	}
}

func TestHandler_CreateMapping_BadJSON(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"document":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateMapping(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400 HTTPError, got %v", err)
	}
}

func TestHandler_ValidateMapping(t *testing.T) {
	h, e := newTestHandler()
	body := `{"document":{"id":"doc-8","category":"radiology"},"entities":[]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ValidateMapping(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var oo fhir.OperationOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &oo); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// no uploadedAt, so lastUpdated is only recommended
	if len(oo.Issue) != 1 || oo.Issue[0].Severity != fhir.IssueSeverityWarning {
		t.Errorf("expected one warning, got %+v", oo.Issue)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api/v1"))

	body := `{"document":{"id":"doc-9","category":"referral","uploadedAt":"2024-03-01T09:30:00Z"},"entities":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mappings", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestConstructionResponse_OtherError(t *testing.T) {
	_, e := newTestHandler()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())
	err := ConstructionResponse(c, errors.New("boom"))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 HTTPError, got %v", err)
	}
}

func TestBindError(t *testing.T) {
	tooLarge := echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"http error kept", tooLarge, http.StatusRequestEntityTooLarge},
		{"plain error", errors.New("unexpected EOF"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var httpErr *echo.HTTPError
			if !errors.As(BindError(tt.err), &httpErr) || httpErr.Code != tt.want {
				t.Errorf("expected %d, got %v", tt.want, BindError(tt.err))
			}
		})
	}
}
