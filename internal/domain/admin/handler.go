package admin

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the console endpoints. The group is expected to
// carry the admin role guard.
func (h *Handler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/flags", h.ListFlags)
	admin.GET("/flags/:key", h.GetFlag)
	admin.PUT("/flags/:key", h.SetFlag)
	admin.DELETE("/flags/:key", h.DeleteFlag)
	admin.GET("/users", h.ListUsers)
	admin.POST("/users/:id/promote", h.PromoteUser)
	admin.GET("/billing", h.Billing)
	admin.POST("/reset-class", h.ResetClass)
}

func (h *Handler) ListFlags(c echo.Context) error {
	flags, err := h.svc.Flags(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, flags)
}

func (h *Handler) GetFlag(c echo.Context) error {
	flag, err := h.svc.Flag(c.Request().Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, ErrFlagNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "feature flag not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, flag)
}

func (h *Handler) SetFlag(c echo.Context) error {
	var req FlagRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	flag, err := h.svc.SetFlag(c.Request().Context(), c.Param("key"), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, flag)
}

func (h *Handler) DeleteFlag(c echo.Context) error {
	if err := h.svc.DeleteFlag(c.Request().Context(), c.Param("key")); err != nil {
		if errors.Is(err, ErrFlagNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "feature flag not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.svc.Users(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) PromoteUser(c echo.Context) error {
	user, err := h.svc.PromoteUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) Billing(c echo.Context) error {
	overview, err := h.svc.Billing(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, overview)
}

func (h *Handler) ResetClass(c echo.Context) error {
	report, err := h.svc.ResetClass(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}
