package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goodtune/snstimer/internal/tracker"
	"github.com/rs/zerolog"
)

type activatedRequest struct {
	TabID *int   `json:"tabId" binding:"required"`
	URL   string `json:"url"`
}

type updatedRequest struct {
	TabID *int   `json:"tabId" binding:"required"`
	URL   string `json:"url" binding:"required"`
}

type focusRequest struct {
	Focused *bool `json:"focused" binding:"required"`
}

type removedRequest struct {
	TabID *int `json:"tabId" binding:"required"`
}

// EventViews receives browser tab and window events.
type EventViews struct {
	events EventSink
	logger zerolog.Logger
}

// NewEventViews creates a new event views instance.
func NewEventViews(events EventSink, logger zerolog.Logger) *EventViews {
	return &EventViews{
		events: events,
		logger: logger.With().Str("handler", "events").Logger(),
	}
}

// Activated handles a tab becoming the foreground tab.
func (v *EventViews) Activated(ctx *gin.Context) {
	var req activatedRequest
	if !bindJSON(ctx, &req) {
		return
	}
	v.dispatch(ctx, tracker.TabActivated{TabID: *req.TabID, URL: req.URL})
}

// Updated handles a tab's URL changing.
func (v *EventViews) Updated(ctx *gin.Context) {
	var req updatedRequest
	if !bindJSON(ctx, &req) {
		return
	}
	v.dispatch(ctx, tracker.TabUpdated{TabID: *req.TabID, URL: req.URL})
}

// Focus handles the browser window gaining or losing focus.
func (v *EventViews) Focus(ctx *gin.Context) {
	var req focusRequest
	if !bindJSON(ctx, &req) {
		return
	}
	v.dispatch(ctx, tracker.FocusChanged{Focused: *req.Focused})
}

// Removed handles a tab closing.
func (v *EventViews) Removed(ctx *gin.Context) {
	var req removedRequest
	if !bindJSON(ctx, &req) {
		return
	}
	v.dispatch(ctx, tracker.TabRemoved{TabID: *req.TabID})
}

func (v *EventViews) dispatch(ctx *gin.Context, ev tracker.Event) {
	if err := v.events.Dispatch(ctx.Request.Context(), ev); err != nil {
		v.logger.Error().Err(err).Msgf("Failed to apply %T", ev)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "server_error",
			"message": err.Error(),
		})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// bindJSON decodes the request body, answering 400 on failure.
func bindJSON(ctx *gin.Context, out any) bool {
	if err := ctx.ShouldBindJSON(out); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return false
	}
	return true
}
