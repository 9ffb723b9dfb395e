package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/doubtroom/flashcard-srs/internal/models"
	"github.com/doubtroom/flashcard-srs/internal/service"
	"github.com/doubtroom/flashcard-srs/internal/service/srs"
	"github.com/doubtroom/flashcard-srs/pkg/validator"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// userIDHeader carries the opaque user identity set by the external auth
// layer. It is trusted as already authenticated.
const userIDHeader = "X-User-ID"

type Service interface {
	SubmitRating(ctx context.Context, userID, questionID string, difficulty models.Difficulty) (*models.ReviewRecord, error)
	ListDueCards(ctx context.Context, userID string, asOf time.Time) ([]*models.ReviewRecord, error)
	HasDueCards(ctx context.Context, userID string, asOf time.Time) (bool, error)
	GetRecord(ctx context.Context, userID, questionID string) (*models.ReviewRecord, error)
	ListRecords(ctx context.Context, userID string) ([]*models.ReviewRecord, error)
}

var _ Service = (*service.Scheduler)(nil)

type Handler struct {
	service Service
}

func New(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.health)

	g := e.Group("/flashcards", requireUser)
	g.PUT("/:questionId/status", h.submitRating)
	g.GET("/status", h.listStatuses)
	g.GET("/status/:questionId", h.getStatus)
	g.GET("/due", h.listDue)
	g.GET("/due/any", h.hasDue)
}

func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Request().Header.Get(userIDHeader)
		if userID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing "+userIDHeader+" header")
		}
		c.Set("userID", userID)
		return next(c)
	}
}

func contextUser(c echo.Context) string {
	userID, _ := c.Get("userID").(string)
	return userID
}

type ratingRequest struct {
	Difficulty models.Difficulty `json:"difficulty" validate:"required,oneof=easy medium hard"`
}

type dueResponse struct {
	Due bool `json:"due"`
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) submitRating(c echo.Context) error {
	data := new(ratingRequest)
	if err := c.Bind(data); err != nil {
		return err
	}
	if err := validator.ValidateStruct(data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	record, err := h.service.SubmitRating(c.Request().Context(), contextUser(c), c.Param("questionId"), data.Difficulty)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, record)
}

func (h *Handler) listStatuses(c echo.Context) error {
	records, err := h.service.ListRecords(c.Request().Context(), contextUser(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, records)
}

func (h *Handler) getStatus(c echo.Context) error {
	record, err := h.service.GetRecord(c.Request().Context(), contextUser(c), c.Param("questionId"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, record)
}

func (h *Handler) listDue(c echo.Context) error {
	asOf, err := parseAsOf(c)
	if err != nil {
		return err
	}

	records, err := h.service.ListDueCards(c.Request().Context(), contextUser(c), asOf)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, records)
}

func (h *Handler) hasDue(c echo.Context) error {
	asOf, err := parseAsOf(c)
	if err != nil {
		return err
	}

	due, err := h.service.HasDueCards(c.Request().Context(), contextUser(c), asOf)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dueResponse{Due: due})
}

// parseAsOf reads the optional as_of query parameter. A zero time means "now"
// and is resolved by the scheduler.
func parseAsOf(c echo.Context) (time.Time, error) {
	raw := c.QueryParam("as_of")
	if raw == "" {
		return time.Time{}, nil
	}

	asOf, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "as_of must be an RFC3339 timestamp")
	}

	return asOf, nil
}

func httpError(err error) error {
	var invalidIntervalErr *srs.InvalidIntervalError
	var persistenceErr *models.PersistenceError

	switch {
	case errors.Is(err, service.ErrInvalidRating), errors.As(err, &invalidIntervalErr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "review record not found")
	case errors.As(err, &persistenceErr):
		zap.S().Error("record store unavailable", zap.Error(err))
		return echo.NewHTTPError(http.StatusServiceUnavailable, "record store temporarily unavailable")
	default:
		zap.S().Error("request failed", zap.Error(err))
		return err
	}
}
