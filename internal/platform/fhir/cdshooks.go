package fhir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ---------------------------------------------------------------------------
// CDS Hooks 2.0 types, limited to what the safety service returns
// ---------------------------------------------------------------------------

// CDS card indicators.
const (
	CDSIndicatorInfo     = "info"
	CDSIndicatorWarning  = "warning"
	CDSIndicatorCritical = "critical"
)

// CDSService describes a single CDS service returned in discovery.
type CDSService struct {
	Hook        string            `json:"hook"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description"`
	ID          string            `json:"id"`
	Prefetch    map[string]string `json:"prefetch,omitempty"`
}

// CDSHookRequest is the payload POSTed to invoke a hook. Context carries the
// hook-specific input; the safety service expects the document and entity
// list there.
type CDSHookRequest struct {
	Hook         string          `json:"hook"`
	HookInstance string          `json:"hookInstance"`
	Context      json.RawMessage `json:"context"`
}

// CDSCard is a single card in the hook response.
type CDSCard struct {
	UUID      string    `json:"uuid,omitempty"`
	Summary   string    `json:"summary"`
	Detail    string    `json:"detail,omitempty"`
	Indicator string    `json:"indicator"`
	Source    CDSSource `json:"source"`
	Links     []CDSLink `json:"links,omitempty"`
}

// CDSSource identifies the source of a card.
type CDSSource struct {
	Label string     `json:"label"`
	URL   string     `json:"url,omitempty"`
	Topic *CDSCoding `json:"topic,omitempty"`
}

// CDSLink is an external link within a card.
type CDSLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// CDSCoding is a code/system/display triple used in CDS Hooks.
type CDSCoding struct {
	Code    string `json:"code"`
	System  string `json:"system,omitempty"`
	Display string `json:"display,omitempty"`
}

// CDSHookResponse is returned from hook invocation.
type CDSHookResponse struct {
	Cards []CDSCard `json:"cards"`
}

// ServiceHandler processes a CDS hook request and returns cards.
type ServiceHandler func(ctx context.Context, req CDSHookRequest) (*CDSHookResponse, error)

// CDSHooksHandler implements the discovery and invocation endpoints of the
// CDS Hooks REST API.
type CDSHooksHandler struct {
	services map[string]CDSService
	handlers map[string]ServiceHandler
	order    []string
}

// NewCDSHooksHandler creates a new CDSHooksHandler.
func NewCDSHooksHandler() *CDSHooksHandler {
	return &CDSHooksHandler{
		services: make(map[string]CDSService),
		handlers: make(map[string]ServiceHandler),
	}
}

// RegisterService registers a CDS service and its handler. Registering the
// same id twice replaces the handler but keeps the discovery position.
func (h *CDSHooksHandler) RegisterService(svc CDSService, handler ServiceHandler) {
	if _, exists := h.services[svc.ID]; !exists {
		h.order = append(h.order, svc.ID)
	}
	h.services[svc.ID] = svc
	h.handlers[svc.ID] = handler
}

// RegisterRoutes registers CDS Hooks routes on the root Echo instance.
func (h *CDSHooksHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/cds-services", h.Discovery)
	e.POST("/cds-services/:id", h.HandleHook)
}

// Discovery handles GET /cds-services.
func (h *CDSHooksHandler) Discovery(c echo.Context) error {
	services := make([]CDSService, 0, len(h.order))
	for _, id := range h.order {
		services = append(services, h.services[id])
	}
	return c.JSON(http.StatusOK, map[string][]CDSService{
		"services": services,
	})
}

// HandleHook handles POST /cds-services/:id.
func (h *CDSHooksHandler) HandleHook(c echo.Context) error {
	serviceID := c.Param("id")

	svc, ok := h.services[serviceID]
	if !ok {
		return c.JSON(http.StatusNotFound, NotFoundOutcome("CDS Service", serviceID))
	}

	var req CDSHookRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorOutcome(fmt.Sprintf("invalid request body: %v", err)))
	}

	if req.Hook != svc.Hook {
		return c.JSON(http.StatusBadRequest, ErrorOutcome(
			fmt.Sprintf("hook mismatch: request hook %q does not match service hook %q", req.Hook, svc.Hook),
		))
	}
	if req.HookInstance == "" {
		return c.JSON(http.StatusBadRequest, RequiredOutcome("hookInstance is required", "hookInstance"))
	}

	resp, err := h.handlers[serviceID](c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorOutcome(err.Error()))
	}
	if resp.Cards == nil {
		resp.Cards = []CDSCard{}
	}
	return c.JSON(http.StatusOK, resp)
}
