package lab

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/lab/progress", h.ListProgress)
	api.POST("/lab/progress", h.UpsertProgress)
	api.GET("/lab/progress/:day", h.ListProgressForDay)
	api.POST("/lab/progress/reset", h.ResetProgress)
	api.GET("/lab/artifacts", h.ListArtifacts)
	api.GET("/lab/artifacts/:id/download", h.DownloadArtifact)
}

func (h *Handler) ListProgress(c echo.Context) error {
	sessionID := c.QueryParam("sessionId")
	records, err := h.svc.Progress(c.Request().Context(), sessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) UpsertProgress(c echo.Context) error {
	var p LabProgress
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.UpsertProgress(c.Request().Context(), &p)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListProgressForDay(c echo.Context) error {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lab day")
	}
	records, err := h.svc.ProgressForDay(c.Request().Context(), c.QueryParam("sessionId"), day)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

type resetRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handler) ResetProgress(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	removed, err := h.svc.ResetProgress(c.Request().Context(), req.SessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"removed": removed,
	})
}

func (h *Handler) ListArtifacts(c echo.Context) error {
	sessionID := c.QueryParam("sessionId")
	labDay := 0
	if raw := c.QueryParam("labDay"); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid labDay")
		}
		labDay = day
	}
	records, err := h.svc.Artifacts(c.Request().Context(), sessionID, labDay)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) DownloadArtifact(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	artifact, reader, err := h.svc.OpenArtifact(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	defer reader.Close()

	contentType := artifact.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	name := artifact.DisplayName
	if name == "" {
		name = artifact.FileName
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, name))
	return c.Stream(http.StatusOK, contentType, reader)
}
