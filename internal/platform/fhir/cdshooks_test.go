package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestCDSHooksHandler() *CDSHooksHandler {
	h := NewCDSHooksHandler()
	h.RegisterService(CDSService{
		Hook:        "order-select",
		Title:       "Medication Safety",
		Description: "Screens extracted medications",
		ID:          "entity-safety",
	}, func(ctx context.Context, req CDSHookRequest) (*CDSHookResponse, error) {
		if strings.Contains(string(req.Context), "fail") {
			return nil, errors.New("bad context")
		}
		return &CDSHookResponse{Cards: []CDSCard{{
			Summary:   "Potential interaction",
			Indicator: CDSIndicatorWarning,
			Source:    CDSSource{Label: "test"},
		}}}, nil
	})
	h.RegisterService(CDSService{Hook: "patient-view", Description: "empty", ID: "quiet"},
		func(ctx context.Context, req CDSHookRequest) (*CDSHookResponse, error) {
			return &CDSHookResponse{}, nil
		})
	return h
}

func postHook(t *testing.T, h *CDSHooksHandler, id, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodPost, "/cds-services/"+id, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCDSHooks_Discovery(t *testing.T) {
	h := newTestCDSHooksHandler()
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/cds-services", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var result struct {
		Services []CDSService `json:"services"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(result.Services) != 2 || result.Services[0].ID != "entity-safety" {
		t.Errorf("unexpected services: %+v", result.Services)
	}
}

func TestCDSHooks_HandleHook(t *testing.T) {
	rec := postHook(t, newTestCDSHooksHandler(), "entity-safety",
		`{"hook":"order-select","hookInstance":"abc","context":{}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp CDSHookResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Cards) != 1 || resp.Cards[0].Indicator != CDSIndicatorWarning {
		t.Errorf("unexpected cards: %+v", resp.Cards)
	}
}

func TestCDSHooks_EmptyCardsSerializeAsArray(t *testing.T) {
	rec := postHook(t, newTestCDSHooksHandler(), "quiet",
		`{"hook":"patient-view","hookInstance":"abc"}`)
	if !strings.Contains(rec.Body.String(), `"cards":[]`) {
		t.Errorf("expected empty cards array, got %s", rec.Body.String())
	}
}

func TestCDSHooks_Errors(t *testing.T) {
	tests := []struct {
		name string
		id   string
		body string
		code int
	}{
		{"unknown service", "nope", `{}`, http.StatusNotFound},
		{"bad json", "entity-safety", `{`, http.StatusBadRequest},
		{"hook mismatch", "entity-safety", `{"hook":"patient-view","hookInstance":"a"}`, http.StatusBadRequest},
		{"missing instance", "entity-safety", `{"hook":"order-select"}`, http.StatusBadRequest},
		{"handler error", "entity-safety", `{"hook":"order-select","hookInstance":"a","context":{"x":"fail"}}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postHook(t, newTestCDSHooksHandler(), tt.id, tt.body)
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
		})
	}
}
