package commerce

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fhirbootcamp/api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/products", h.ListProducts)
	api.GET("/courses", h.ListCourses)
	api.GET("/courses/:slug", h.GetCourse)
	api.GET("/courses/:slug/access", h.CheckAccess)
}

// RegisterWebhookRoutes mounts the payment webhook on an unauthenticated
// group; the payload signature is the only credential Stripe sends.
func (h *Handler) RegisterWebhookRoutes(pub *echo.Group) {
	pub.POST("/billing/webhook", h.Webhook)
}

// RegisterAdminRoutes mounts catalog management under the admin group.
func (h *Handler) RegisterAdminRoutes(admin *echo.Group) {
	admin.PUT("/courses/:slug", h.UpsertCourse)
	admin.GET("/purchases", h.ListPurchases)
}

func (h *Handler) ListProducts(c echo.Context) error {
	products, err := h.svc.Products(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, products)
}

func (h *Handler) ListCourses(c echo.Context) error {
	courses, err := h.svc.Courses(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, courses)
}

func (h *Handler) GetCourse(c echo.Context) error {
	course, err := h.svc.Course(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "course not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, course)
}

func (h *Handler) CheckAccess(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	hasAccess, err := h.svc.HasAccess(c.Request().Context(), userID, c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrCourseNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "course not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"slug":   c.Param("slug"),
		"access": hasAccess,
	})
}

func (h *Handler) UpsertCourse(c echo.Context) error {
	var course Course
	if err := c.Bind(&course); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	course.Slug = c.Param("slug")
	if err := h.svc.UpsertCourse(c.Request().Context(), &course); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, course)
}

func (h *Handler) ListPurchases(c echo.Context) error {
	purchases, err := h.svc.AllPurchases(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if purchases == nil {
		purchases = []*Purchase{}
	}
	return c.JSON(http.StatusOK, purchases)
}

func (h *Handler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable payload")
	}
	signature := c.Request().Header.Get("Stripe-Signature")

	result, err := h.svc.HandleWebhook(c.Request().Context(), payload, signature)
	if err != nil {
		if errors.Is(err, ErrBadSignature) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
