package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Embedded usage dashboard, the browser counterpart of the extension popup.
//
//go:embed dashboard
var dashboardFS embed.FS

// serveIndexHTML serves the dashboard page
func serveIndexHTML(c *gin.Context) {
	data, err := fs.ReadFile(dashboardFS, "dashboard/index.html")
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// SetupUIRoutes serves the dashboard at / and its assets under /ui.
func SetupUIRoutes(r *gin.Engine) {
	assets, err := fs.Sub(dashboardFS, "dashboard")
	if err == nil {
		r.StaticFS("/ui", http.FS(assets))
	}

	r.GET("/", serveIndexHTML)
}
