package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-intake-api/internal/service"
	appErrors "github.com/noah-isme/timetable-intake-api/pkg/errors"
	"github.com/noah-isme/timetable-intake-api/pkg/response"
)

type timetableFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// TimetableHandler proxies generated timetables from the external solver.
type TimetableHandler struct {
	timetables timetableFetcher
	metrics    *service.MetricsService
	logger     *zap.Logger
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(timetables timetableFetcher, metrics *service.MetricsService, logger *zap.Logger) *TimetableHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableHandler{timetables: timetables, metrics: metrics, logger: logger}
}

// Get relays the solver's timetable payload verbatim. Every upstream failure
// collapses to the same opaque message so solver internals never leak out.
func (h *TimetableHandler) Get(c *gin.Context) {
	body, err := h.timetables.Fetch(c.Request.Context())
	if err != nil {
		if h.metrics != nil {
			h.metrics.ObserveSolverFailure()
		}
		h.logger.Error("solver relay failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch data from FastAPI"})
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// AdjustLabs is a reserved endpoint for manual lab-slot adjustment.
func (h *TimetableHandler) AdjustLabs(c *gin.Context) {
	response.Error(c, &appErrors.Error{
		Code:    "NOT_IMPLEMENTED",
		Status:  http.StatusNotImplemented,
		Message: "lab adjustment is not available yet",
	})
}
