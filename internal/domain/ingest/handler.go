package ingest

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/fhir/bundles/upload", h.UploadBundle)
	api.GET("/fhir/bundles", h.ListBundles)
	api.POST("/fhir/export/csv", h.ExportCSV)
	api.POST("/fhir/observations/publish", h.PublishObservation)
}

// Pipeline failures are part of the lab experience; they come back as 200s
// with success:false so the client can render the message inline.

func (h *Handler) UploadBundle(c echo.Context) error {
	var req UploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.UploadBundle(c.Request().Context(), req))
}

func (h *Handler) ListBundles(c echo.Context) error {
	records, err := h.svc.Bundles(c.Request().Context(), c.QueryParam("sessionId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) ExportCSV(c echo.Context) error {
	var req ExportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.ExportCSV(c.Request().Context(), req))
}

func (h *Handler) PublishObservation(c echo.Context) error {
	var req PublishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.PublishObservation(c.Request().Context(), req))
}
