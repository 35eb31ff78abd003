package servers

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
	api.GET("/fhir/servers", h.ListServers)
	api.POST("/fhir/ping", h.Ping)
	api.GET("/settings/fhir-environment", h.GetEnvironment)
	api.PUT("/settings/fhir-environment", h.UpdateEnvironment)
}

func (h *Handler) ListServers(c echo.Context) error {
	servers, err := h.svc.ListServers(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, servers)
}

type pingRequest struct {
	BaseURL string `json:"baseUrl"`
}

func (h *Handler) Ping(c echo.Context) error {
	var req pingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result := h.svc.Ping(c.Request().Context(), req.BaseURL)
	if !result.Success {
		return c.JSON(http.StatusBadGateway, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetEnvironment(c echo.Context) error {
	settings := h.svc.Settings()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"useLocalServer": settings.UseLocalServer,
		"activeBaseUrl":  h.svc.ActiveBaseURL(),
	})
}

func (h *Handler) UpdateEnvironment(c echo.Context) error {
	var settings EnvironmentSettings
	if err := c.Bind(&settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateSettings(settings); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"useLocalServer": settings.UseLocalServer,
		"activeBaseUrl":  h.svc.ActiveBaseURL(),
	})
}
