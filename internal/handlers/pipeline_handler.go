package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/services"
)

// PipelineHandler exposes the scheduler entry points behind the pipeline
// API key.
type PipelineHandler struct {
	automationService  services.AutomationServicer
	performanceService services.PerformanceServicer
	loc                *time.Location
	now                func() time.Time
}

// NewPipelineHandler creates a new PipelineHandler. Dates default to today in
// loc, the market time zone.
func NewPipelineHandler(automationService services.AutomationServicer, performanceService services.PerformanceServicer, loc *time.Location) *PipelineHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PipelineHandler{
		automationService:  automationService,
		performanceService: performanceService,
		loc:                loc,
		now:                time.Now,
	}
}

// RecordSnapshotRequest represents the optional payload for recording a snapshot.
type RecordSnapshotRequest struct {
	Date string `json:"date"`
}

// RunAICycle handles running the AI trading cycle.
// @Summary     Run AI trading cycle
// @Description Ask the recommender for decisions and execute them, sells first
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header   string                true "Pipeline API key"
// @Success     200       {object} services.CycleReport  "Cycle report"
// @Failure     401       {object} ErrorResponse         "Invalid API key"
// @Failure     503       {object} ErrorResponse         "Recommender unavailable or pipeline not configured"
// @Router      /pipeline/ai-cycle [post]
func (h *PipelineHandler) RunAICycle(c *gin.Context) {
	report, err := h.automationService.RunAITradingCycle(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RunStopLossCheck handles running the stop-loss check.
// @Summary     Run stop-loss check
// @Description Sell every position trading at or below its stop price
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header   string                   true "Pipeline API key"
// @Success     200       {object} services.StopLossReport  "Stop-loss report"
// @Failure     401       {object} ErrorResponse            "Invalid API key"
// @Failure     503       {object} ErrorResponse            "Pipeline not configured"
// @Router      /pipeline/stop-loss [post]
func (h *PipelineHandler) RunStopLossCheck(c *gin.Context) {
	report, err := h.automationService.RunStopLossCheck(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// RecordSnapshot handles recording the daily performance snapshot.
// @Summary     Record daily snapshot
// @Description Value the portfolio and the benchmark for a date (default today)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header   string                   true  "Pipeline API key"
// @Param       request   body     RecordSnapshotRequest    false "Snapshot date (YYYY-MM-DD)"
// @Success     200       {object} models.DailyPerformance  "Recorded snapshot"
// @Failure     400       {object} ErrorResponse            "Invalid input"
// @Failure     401       {object} ErrorResponse            "Invalid API key"
// @Failure     503       {object} ErrorResponse            "Benchmark unavailable or pipeline not configured"
// @Router      /pipeline/snapshots [post]
func (h *PipelineHandler) RecordSnapshot(c *gin.Context) {
	var req RecordSnapshotRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	date := h.now().In(h.loc)
	if req.Date != "" {
		parsed, err := parseFlexibleTime(req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
		date = parsed
	}

	snapshot, err := h.performanceService.RecordDailySnapshot(c.Request.Context(), date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// RefreshQuotes handles force-refreshing held symbols and the benchmark.
// @Summary     Refresh quotes
// @Description Bypass the cache and refetch every held symbol and the benchmark
// @Tags        pipeline
// @Produce     json
// @Param       X-API-Key header   string                  true "Pipeline API key"
// @Success     200       {object} services.RefreshReport  "Refresh report"
// @Failure     401       {object} ErrorResponse           "Invalid API key"
// @Failure     503       {object} ErrorResponse           "Pipeline not configured"
// @Router      /pipeline/refresh-quotes [post]
func (h *PipelineHandler) RefreshQuotes(c *gin.Context) {
	report, err := h.automationService.RefreshQuotes(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
