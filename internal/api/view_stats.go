package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goodtune/snstimer/internal/dashboard"
	"github.com/goodtune/snstimer/internal/tracker"
	"github.com/rs/zerolog"
)

type limitRequest struct {
	Minutes *int `json:"minutes" binding:"required"`
}

// StatsViews serves the usage summary, limits, reset and export.
type StatsViews struct {
	dashboard *dashboard.Service
	clock     tracker.Clock
	logger    zerolog.Logger
}

// NewStatsViews creates a new stats views instance.
func NewStatsViews(service *dashboard.Service, clock tracker.Clock, logger zerolog.Logger) *StatsViews {
	return &StatsViews{
		dashboard: service,
		clock:     clock,
		logger:    logger.With().Str("handler", "stats").Logger(),
	}
}

// Summary returns today's usage per site.
func (v *StatsViews) Summary(ctx *gin.Context) {
	summary, err := v.dashboard.Summary(ctx.Request.Context())
	if err != nil {
		v.logger.Error().Err(err).Msg("Failed to build summary")
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "server_error",
			"message": "Failed to retrieve statistics",
		})
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

// SetLimit updates one site's daily limit.
func (v *StatsViews) SetLimit(ctx *gin.Context) {
	domain := ctx.Param("domain")

	var req limitRequest
	if !bindJSON(ctx, &req) {
		return
	}

	err := v.dashboard.SetLimit(ctx.Request.Context(), domain, *req.Minutes)
	switch {
	case err == nil:
		ctx.JSON(http.StatusOK, gin.H{
			"domain":  domain,
			"minutes": *req.Minutes,
		})
	case errors.Is(err, dashboard.ErrUnknownSite):
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": err.Error(),
		})
	case errors.Is(err, dashboard.ErrLimitOutOfRange):
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
	default:
		v.logger.Error().Err(err).Str("domain", domain).Msg("Failed to set limit")
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "server_error",
			"message": "Failed to save limit",
		})
	}
}

// Reset clears today's statistics.
func (v *StatsViews) Reset(ctx *gin.Context) {
	if err := v.dashboard.ResetToday(ctx.Request.Context()); err != nil {
		v.logger.Error().Err(err).Msg("Failed to reset statistics")
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "server_error",
			"message": "Failed to reset statistics",
		})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Export returns today's data as a downloadable JSON document.
func (v *StatsViews) Export(ctx *gin.Context) {
	doc, err := v.dashboard.Export(ctx.Request.Context())
	if err != nil {
		v.logger.Error().Err(err).Msg("Failed to export")
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "server_error",
			"message": "Failed to export data",
		})
		return
	}

	filename := dashboard.ExportFilename(v.clock.Now())
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.IndentedJSON(http.StatusOK, doc)
}
