package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter sets up the gin engine with all routes
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(h.Auth.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	// Page routes
	r.GET("/login", h.LoginPage)
	r.GET("/", h.SidebarPage)
	r.GET("/logout", h.Logout)

	// API routes
	api := r.Group("/api")
	{
		api.POST("/login", h.Login)

		api.GET("/location", h.GetLocation)
		api.DELETE("/selection", h.ClearSelection)

		// Workspaces
		api.GET("/workspaces", h.ListWorkspaces)
		api.PUT("/workspaces/current", h.SetCurrentWorkspace)

		// Sidebar
		api.GET("/sidebar", h.GetSidebar)
		api.GET("/sidebar/events", h.SidebarEvents)
		api.POST("/sidebar/reorder", h.Reorder)
		api.POST("/sidebar/add-cluster", h.StartAddCluster)
		api.POST("/extensions/:extension/:page", h.OpenExtension)

		// Cluster management
		api.GET("/clusters", h.ListClusters)
		api.POST("/clusters", h.AddCluster)
		api.POST("/clusters/:id/select", h.SelectCluster)
		api.PUT("/clusters/:id/enabled", h.SetClusterEnabled)
		api.GET("/clusters/:id/status", h.ClusterStatus)

		// Context menu
		api.POST("/clusters/:id/menu", h.OpenClusterMenu)
		api.POST("/menu/items/:index", h.InvokeMenuItem)
		api.DELETE("/menu", h.DismissMenu)

		// Confirmations
		api.GET("/confirmations", h.GetConfirmation)
		api.POST("/confirmations/:id", h.ResolveConfirmation)
	}

	return r
}
