package quiz

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
	api.GET("/quizzes", h.ListQuizzes)
	api.GET("/quizzes/:slug", h.GetQuiz)
	api.POST("/quizzes/:slug/grade", h.Grade)
	api.GET("/quizzes/:slug/attempts", h.ListAttempts)
}

func (h *Handler) ListQuizzes(c echo.Context) error {
	quizzes, err := h.svc.ListQuizzes(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, quizzes)
}

func (h *Handler) GetQuiz(c echo.Context) error {
	quiz, err := h.svc.GetQuiz(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrQuizNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "quiz not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, quiz)
}

func (h *Handler) Grade(c echo.Context) error {
	var req GradeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Grade(c.Request().Context(), c.Param("slug"), req)
	if err != nil {
		if errors.Is(err, ErrQuizNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "quiz not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) ListAttempts(c echo.Context) error {
	attempts, err := h.svc.Attempts(c.Request().Context(), c.Param("slug"), c.QueryParam("sessionId"))
	if err != nil {
		if errors.Is(err, ErrQuizNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "quiz not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, attempts)
}
