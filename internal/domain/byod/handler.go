package byod

import (
	"errors"
	"net/http"

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
	api.POST("/byod/import", h.Import)
	api.POST("/byod/publish", h.Publish)
	api.POST("/byod/apps/generate", h.GenerateApp)
	api.GET("/byod/sessions", h.ListSessions)
	api.GET("/byod/sessions/:id", h.GetSession)
}

func (h *Handler) Import(c echo.Context) error {
	var req ImportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.Import(c.Request().Context(), req))
}

func (h *Handler) Publish(c echo.Context) error {
	var req PublishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, h.svc.Publish(c.Request().Context(), req))
}

func (h *Handler) GenerateApp(c echo.Context) error {
	var req GenerateAppRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	app, err := h.svc.GenerateApp(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, app)
}

func (h *Handler) ListSessions(c echo.Context) error {
	sessions, err := h.svc.Sessions(c.Request().Context(), c.QueryParam("sessionId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sessions)
}

func (h *Handler) GetSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	session, observations, apps, err := h.svc.Session(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session":      session,
		"observations": observations,
		"apps":         apps,
	})
}
