package analysis

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/healthmap/internal/domain/mapping"
	"github.com/ehr/healthmap/internal/platform/fhir"
)

// BatchRequest is the body of POST /analyses/batch.
type BatchRequest struct {
	Documents []Input `json:"documents"`
}

// BatchResponse is returned from POST /analyses/batch.
type BatchResponse struct {
	Results []BatchItem `json:"results"`
}

type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/analyses", h.CreateAnalysis)
	api.POST("/analyses/batch", h.CreateBatch)
}

// CreateAnalysis handles POST /analyses.
func (h *Handler) CreateAnalysis(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return mapping.BindError(err)
	}
	report, err := h.engine.Run(c.Request().Context(), in)
	if err != nil {
		return mapping.ConstructionResponse(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// CreateBatch handles POST /analyses/batch. Per-document failures are
// reported inside the response.
func (h *Handler) CreateBatch(c echo.Context) error {
	var req BatchRequest
	if err := c.Bind(&req); err != nil {
		return mapping.BindError(err)
	}
	if len(req.Documents) == 0 {
		return c.JSON(http.StatusBadRequest, fhir.RequiredOutcome("at least one document is required", "documents"))
	}
	items, err := h.engine.AnalyzeBatch(c.Request().Context(), req.Documents)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, BatchResponse{Results: items})
}
