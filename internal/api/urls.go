package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goodtune/snstimer/web"
)

// SetupRoutes registers all API routes with the Gin engine.
func SetupRoutes(r *gin.Engine, deps *Deps, allowedOrigins []string) {
	r.Use(LoggingMiddleware(deps.Logger))
	if len(allowedOrigins) > 0 {
		r.Use(CORSMiddleware(allowedOrigins))
	}

	eventViews := NewEventViews(deps.Events, deps.Logger)
	statsViews := NewStatsViews(deps.Dashboard, deps.Clock, deps.Logger)
	notificationViews := NewNotificationViews(deps.Notifications)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(ctx *gin.Context) {
			ctx.String(http.StatusOK, "OK")
		})

		events := v1.Group("/events")
		{
			events.POST("/activated", eventViews.Activated)
			events.POST("/updated", eventViews.Updated)
			events.POST("/focus", eventViews.Focus)
			events.POST("/removed", eventViews.Removed)
		}

		v1.GET("/stats", statsViews.Summary)
		v1.DELETE("/stats", statsViews.Reset)
		v1.PUT("/limits/:domain", statsViews.SetLimit)
		v1.GET("/export", statsViews.Export)

		v1.GET("/notifications", notificationViews.Drain)
	}

	web.SetupUIRoutes(r)
}
