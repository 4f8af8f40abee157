package analysis

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/healthmap/internal/domain/clinical"
)

func newTestHandler() (*Handler, *echo.Echo) {
	h := NewHandler(newTestEngine(nil))
	e := echo.New()
	return h, e
}

func TestHandler_CreateAnalysis(t *testing.T) {
	h, e := newTestHandler()
	body := `{"document":{"id":"doc-1","category":"prescription","uploadedAt":"2024-03-01T09:00:00Z"},
		"content":"Patient: Ahmed\nDr. Sara\nDate: 2024-03-01\nRx: Metformin 500mg",
		"entities":[{"type":"medication","value":"Metformin"},{"type":"medication","value":"Lisinopril"},
		{"type":"medication","value":"Atorvastatin"}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateAnalysis(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Analysis.Risk.Level != clinical.SeverityMedium || report.Analysis.Risk.Score != 53 {
		t.Errorf("unexpected risk %+v", report.Analysis.Risk)
	}
}

func TestHandler_CreateAnalysis_MissingID(t *testing.T) {
	h, e := newTestHandler()
	body := `{"document":{"category":"prescription"},"entities":[]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateAnalysis(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
}

func TestHandler_CreateAnalysis_NoEntitiesNoExtractor(t *testing.T) {
	h, e := newTestHandler()
	body := `{"document":{"id":"doc-1","category":"prescription"},"content":"Rx: Metformin"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateAnalysis(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// without an extractor the document is analysed with no entities
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_CreateBatch(t *testing.T) {
	h, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api/v1"))
	body := `{"documents":[
		{"document":{"id":"a","category":"lab_results"},"content":"Patient: A\nTest result\nDate: 2024-01-01","entities":[]},
		{"document":{"category":"lab_results"},"entities":[]},
		{"document":{"id":"c","category":"radiology"},"entities":[]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyses/batch", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp BatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}
	if !resp.Results[0].Succeeded || resp.Results[1].Succeeded || !resp.Results[2].Succeeded {
		t.Errorf("unexpected outcomes %+v", resp.Results)
	}
	if resp.Results[2].DocumentID != "c" {
		t.Errorf("expected order to be kept, got %s", resp.Results[2].DocumentID)
	}
}

func TestHandler_CreateBatch_Empty(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"documents":[]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateBatch(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_CreateBatch_BadJSON(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`[`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.CreateBatch(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
