package points

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/points/:userId", h.GetSummary)
	api.POST("/points/redeem", h.Redeem)
	api.GET("/badges", h.ListBadges)
}

func (h *Handler) GetSummary(c echo.Context) error {
	summary, err := h.svc.UserSummary(c.Request().Context(), c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) Redeem(c echo.Context) error {
	var req RedeemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Redeem(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrBadgeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "badge not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ListBadges(c echo.Context) error {
	badges, err := h.svc.Badges(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, badges)
}
