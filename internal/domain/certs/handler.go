package certs

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
	api.POST("/enrollments", h.Enroll)
	api.GET("/enrollments", h.ListEnrollments)
	api.POST("/enrollments/:id/progress", h.UpdateProgress)
	api.POST("/enrollments/:id/certificate", h.GenerateCertificate)
}

// RegisterPublicRoutes mounts verification without auth so QR codes
// resolve for anyone.
func (h *Handler) RegisterPublicRoutes(pub *echo.Group) {
	pub.GET("/certificates/verify/:code", h.Verify)
}

// RegisterAdminRoutes mounts revocation under the admin group.
func (h *Handler) RegisterAdminRoutes(admin *echo.Group) {
	admin.POST("/certificates/:code/revoke", h.Revoke)
}

func (h *Handler) Enroll(c echo.Context) error {
	var req EnrollRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.Enroll(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, ErrAlreadyEnrolled) {
			return echo.NewHTTPError(http.StatusConflict, "user already enrolled in course")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) ListEnrollments(c echo.Context) error {
	enrollments, err := h.svc.Enrollments(c.Request().Context(), c.QueryParam("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if enrollments == nil {
		enrollments = []*Enrollment{}
	}
	return c.JSON(http.StatusOK, enrollments)
}

func (h *Handler) UpdateProgress(c echo.Context) error {
	var req ProgressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.UpdateProgress(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, ErrEnrollmentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "enrollment not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) GenerateCertificate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.GenerateCertificate(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, ErrEnrollmentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "enrollment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !result.Success {
		return c.JSON(http.StatusConflict, result)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Verify(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Verify(c.Request().Context(), c.Param("code")))
}

func (h *Handler) Revoke(c echo.Context) error {
	var req RevokeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cert, err := h.svc.Revoke(c.Request().Context(), c.Param("code"), req.Reason)
	if err != nil {
		if errors.Is(err, ErrCertificateNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "certificate not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, cert)
}
