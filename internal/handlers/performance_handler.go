package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/pagination"
	"papertrader/internal/services"
)

// PerformanceHandler serves recorded daily performance.
type PerformanceHandler struct {
	performanceService services.PerformanceServicer
}

// NewPerformanceHandler creates a new PerformanceHandler.
func NewPerformanceHandler(performanceService services.PerformanceServicer) *PerformanceHandler {
	return &PerformanceHandler{performanceService: performanceService}
}

// GetPerformance handles listing daily snapshots.
// @Summary     Get performance
// @Description Paginated daily portfolio snapshots compared with the benchmark
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Start date (RFC3339 or YYYY-MM-DD)"
// @Param       to_date   query string false "End date (RFC3339 or YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       order     query string false "asc or desc (default desc)"
// @Success     200 {object} pagination.PageResponse[models.DailyPerformance] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /portfolio/performance [get]
func (h *PerformanceHandler) GetPerformance(c *gin.Context) {
	from, err := parseOptionalTime(c, "from_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseOptionalTime(c, "to_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "to_date must not be before from_date"))
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.performanceService.GetPerformance(c.Request.Context(), from, to, page)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBaseline handles retrieving the performance baseline.
// @Summary     Get performance baseline
// @Description Reference values fixed by the first recorded snapshot
// @Tags        portfolio
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.PerformanceBaseline "Baseline"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No snapshot recorded yet"
// @Router      /portfolio/performance/baseline [get]
func (h *PerformanceHandler) GetBaseline(c *gin.Context) {
	baseline, err := h.performanceService.GetBaseline(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, baseline)
}
