package mapping

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/healthmap/internal/domain/extraction"
	"github.com/ehr/healthmap/internal/platform/fhir"
)

// Request is the body accepted by the mapping endpoints.
type Request struct {
	Document extraction.HealthcareDocument `json:"document"`
	Entities []extraction.MedicalEntity    `json:"entities"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/mappings", h.CreateMapping)
	api.POST("/mappings/$validate", h.ValidateMapping)
}

// CreateMapping handles POST /mappings and returns the full mapping result.
func (h *Handler) CreateMapping(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return BindError(err)
	}
	res, err := h.svc.Map(req.Document, req.Entities)
	if err != nil {
		return ConstructionResponse(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ValidateMapping handles POST /mappings/$validate and returns only the
// diagnostics, as an OperationOutcome.
func (h *Handler) ValidateMapping(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return BindError(err)
	}
	res, err := h.svc.Map(req.Document, req.Entities)
	if err != nil {
		return ConstructionResponse(c, err)
	}
	return c.JSON(http.StatusOK, fhir.ValidationOutcome(res.ValidationErrors))
}

// ConstructionResponse writes a 422 OperationOutcome for construction
// failures and a 500 for anything else.
func ConstructionResponse(c echo.Context, err error) error {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return c.JSON(http.StatusUnprocessableEntity, fhir.RequiredOutcome(err.Error(), ce.Fields...))
	}
	if errors.Is(err, ErrConstruction) {
		return c.JSON(http.StatusUnprocessableEntity, fhir.RequiredOutcome(err.Error()))
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// BindError keeps an HTTP error raised while reading the body, such as a 413
// from the body limit, and turns anything else into a 400.
func BindError(err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
}
