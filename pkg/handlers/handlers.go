package handlers

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strconv"
	"time"

	"workspace-cluster-manager/pkg/auth"
	"workspace-cluster-manager/pkg/config"
	"workspace-cluster-manager/pkg/extensions"
	"workspace-cluster-manager/pkg/k8s"
	"workspace-cluster-manager/pkg/menu"
	"workspace-cluster-manager/pkg/metrics"
	"workspace-cluster-manager/pkg/models"
	"workspace-cluster-manager/pkg/navigation"
	"workspace-cluster-manager/pkg/store"
	"workspace-cluster-manager/pkg/templates"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// Services are the components the handlers drive
type Services struct {
	Store      *store.Store
	Workspaces *store.WorkspaceStore
	Selection  *store.Selection
	Navigator  *navigation.Navigator
	K8s        *k8s.Manager
	Auth       *auth.Auth
	Menu       *menu.Controller
	Popups     *menu.PopupHolder
	Prompts    *menu.Prompts
	Metrics    *metrics.Recorder
	Logger     *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	config *config.Config
	Services
}

// New creates a new Handlers instance and activates clusters whenever the
// navigator enters a cluster view.
func New(cfg *config.Config, svc Services) *Handlers {
	h := &Handlers{config: cfg, Services: svc}
	svc.Navigator.OnClusterView(h.activateCluster)
	return h
}

// activateCluster makes the cluster active and connects it in the background
func (h *Handlers) activateCluster(clusterID string) {
	cluster, found := h.Store.GetCluster(clusterID)
	if !found {
		h.Logger.Warn("cluster view for unknown cluster", zap.String("cluster_id", clusterID))
		return
	}
	h.Selection.SetActive(clusterID)
	if cluster.Online {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if _, err := h.K8s.Connect(ctx, cluster); err != nil {
			h.Logger.Warn("could not connect cluster", zap.String("cluster_id", clusterID), zap.Error(err))
		}
	}()
}

// ============== Auth Handlers ==============

// Login handles user login
func (h *Handlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.Auth.ValidateCredentials(req.Username, req.Password); err != nil {
		h.Logger.Info("rejected login", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.Auth.GenerateToken(req.Username)
	if err != nil {
		h.Logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.SetCookie(auth.CookieName, token, 86400, "/", "", false, true)
	c.JSON(http.StatusOK, models.LoginResponse{Token: token, Message: "login successful"})
}

// Logout handles user logout
func (h *Handlers) Logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusTemporaryRedirect, "/login")
}

// ============== Pages ==============

func (h *Handlers) LoginPage(c *gin.Context) {
	render(c, http.StatusOK, templates.LoginPage())
}

func (h *Handlers) SidebarPage(c *gin.Context) {
	render(c, http.StatusOK, templates.SidebarPage(h.Menu.Sidebar()))
}

// render renders a templ component
func render(c *gin.Context, status int, component templ.Component) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		c.String(http.StatusInternalServerError, "Template rendering error")
	}
}

// ============== Sidebar Handlers ==============

// GetSidebar returns the menu state of the current workspace
func (h *Handlers) GetSidebar(c *gin.Context) {
	c.JSON(http.StatusOK, h.Menu.Sidebar())
}

// SidebarEvents streams the sidebar as server-sent events whenever it changes
func (h *Handlers) SidebarEvents(c *gin.Context) {
	updates := h.Menu.Watch(c.Request.Context())
	c.Stream(func(w io.Writer) bool {
		sidebar, ok := <-updates
		if !ok {
			return false
		}
		c.SSEvent("sidebar", sidebar)
		return true
	})
}

// Reorder applies the result of dragging a cluster icon
func (h *Handlers) Reorder(c *gin.Context) {
	var req models.DragResult
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.Menu.Reorder(req); err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidIndex):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case errors.Is(err, store.ErrNotFound):
			// the list changed while the icon was dragged
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.Logger.Error("reorder failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder clusters"})
		return
	}

	c.JSON(http.StatusOK, h.Menu.Sidebar())
}

// StartAddCluster opens the cluster-creation flow
func (h *Handlers) StartAddCluster(c *gin.Context) {
	if !h.Menu.AddCluster() {
		c.JSON(http.StatusForbidden, gin.H{"error": "workspace is managed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": h.Navigator.Location()})
}

// OpenExtension navigates to an extension page
func (h *Handlers) OpenExtension(c *gin.Context) {
	target := extensions.PageTarget{ExtensionID: c.Param("extension"), PageID: c.Param("page")}
	if !h.Menu.OpenExtensionPage(target) {
		c.JSON(http.StatusNotFound, gin.H{"error": "extension page not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": h.Navigator.Location()})
}

// GetLocation returns the current view location
func (h *Handlers) GetLocation(c *gin.Context) {
	activeID, _ := h.Selection.ActiveID()
	c.JSON(http.StatusOK, gin.H{
		"location":          h.Navigator.Location(),
		"active_cluster_id": activeID,
		"history":           h.Navigator.History(),
	})
}

// ClearSelection resets the active cluster without navigating
func (h *Handlers) ClearSelection(c *gin.Context) {
	h.Selection.Clear()
	c.Status(http.StatusNoContent)
}

// ============== Workspace Handlers ==============

// ListWorkspaces returns all workspaces and the current one
func (h *Handlers) ListWorkspaces(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"workspaces": h.Workspaces.Workspaces(),
		"current":    h.Workspaces.Current().ID,
	})
}

// SetCurrentWorkspaceRequest represents switch workspace request
type SetCurrentWorkspaceRequest struct {
	ID string `json:"id" binding:"required"`
}

// SetCurrentWorkspace switches the workspace the sidebar shows
func (h *Handlers) SetCurrentWorkspace(c *gin.Context) {
	var req SetCurrentWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.Workspaces.SetCurrent(req.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.Menu.Sidebar())
}

// ============== Cluster Handlers ==============

// ListClusters returns all clusters, optionally of one workspace
func (h *Handlers) ListClusters(c *gin.Context) {
	var clusters []models.Cluster
	if ws := c.Query("workspace"); ws != "" {
		clusters = h.Store.GetByWorkspaceID(ws)
	} else {
		clusters = h.Store.GetClusters()
	}

	result := make([]models.Cluster, 0, len(clusters))
	for _, cluster := range clusters {
		// Don't expose kubeconfig
		result = append(result, cluster.Public())
	}
	c.JSON(http.StatusOK, result)
}

// AddClusterRequest represents add cluster request
type AddClusterRequest struct {
	WorkspaceID string `json:"workspace_id"`                  // defaults to the current workspace
	Kubeconfig  string `json:"kubeconfig" binding:"required"` // Can be base64 or plain text
}

// AddCluster registers a cluster in a workspace
func (h *Handlers) AddCluster(c *gin.Context) {
	var req AddClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	workspace := h.Workspaces.Current()
	if req.WorkspaceID != "" {
		ws, ok := h.Workspaces.Get(req.WorkspaceID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "workspace not found"})
			return
		}
		workspace = ws
	}
	if workspace.IsManaged {
		c.JSON(http.StatusForbidden, gin.H{"error": "workspace is managed"})
		return
	}

	// Check if kubeconfig is already base64 encoded
	raw, err := base64.StdEncoding.DecodeString(req.Kubeconfig)
	if err != nil {
		raw = []byte(req.Kubeconfig)
	}
	contextName, err := k8s.ContextName(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cluster, err := h.Store.AddCluster(models.Cluster{
		WorkspaceID: workspace.ID,
		ContextName: contextName,
		Kubeconfig:  base64.StdEncoding.EncodeToString(raw),
		Enabled:     true,
	})
	if err != nil {
		h.Logger.Error("failed to save cluster", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save cluster"})
		return
	}

	h.Logger.Info("cluster added",
		zap.String("cluster_id", cluster.ID),
		zap.String("workspace_id", cluster.WorkspaceID),
		zap.String("context", contextName))
	c.JSON(http.StatusOK, cluster.Public())
}

// SelectCluster handles a click on a cluster icon
func (h *Handlers) SelectCluster(c *gin.Context) {
	id := c.Param("id")
	if _, found := h.Store.GetCluster(id); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "cluster not found"})
		return
	}

	h.Menu.SelectCluster(id)
	c.JSON(http.StatusOK, gin.H{
		"location": h.Navigator.Location(),
		"active":   h.Selection.IsActive(id),
	})
}

// SetClusterEnabledRequest represents show/hide cluster request
type SetClusterEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetClusterEnabled shows or hides a cluster in the menu
func (h *Handlers) SetClusterEnabled(c *gin.Context) {
	var req SetClusterEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.Store.SetEnabled(c.Param("id"), *req.Enabled); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cluster updated"})
}

// ClusterStatus probes the cluster's API server
func (h *Handlers) ClusterStatus(c *gin.Context) {
	cluster, found := h.Store.GetCluster(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "cluster not found"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), connectTimeout)
	defer cancel()

	status, _ := h.K8s.Connect(ctx, cluster)
	c.JSON(http.StatusOK, status)
}

// ============== Context Menu Handlers ==============

// OpenClusterMenu opens the context menu of a cluster and returns its items
func (h *Handlers) OpenClusterMenu(c *gin.Context) {
	cluster, found := h.Store.GetCluster(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "cluster not found"})
		return
	}

	h.Menu.OpenClusterMenu(*cluster, h.Popups.NewMenu())

	items, err := h.Popups.Items()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}

// InvokeMenuItem runs an item of the open context menu
func (h *Handlers) InvokeMenuItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item index"})
		return
	}

	if err := h.Popups.Invoke(index); err != nil {
		switch {
		case errors.Is(err, menu.ErrNoOpenMenu):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		}
		return
	}

	resp := gin.H{"location": h.Navigator.Location()}
	if prompt, ok := h.Prompts.Pending(); ok {
		resp["confirmation"] = prompt
	}
	c.JSON(http.StatusOK, resp)
}

// DismissMenu closes the open context menu
func (h *Handlers) DismissMenu(c *gin.Context) {
	h.Popups.Dismiss()
	c.Status(http.StatusNoContent)
}

// ============== Confirmation Handlers ==============

// GetConfirmation returns the pending confirmation prompt
func (h *Handlers) GetConfirmation(c *gin.Context) {
	prompt, ok := h.Prompts.Pending()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

// ResolveConfirmationRequest represents the answer to a confirmation prompt
type ResolveConfirmationRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ResolveConfirmation answers the pending confirmation prompt
func (h *Handlers) ResolveConfirmation(c *gin.Context) {
	var req ResolveConfirmationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.Prompts.Resolve(c.Param("id"), req.Confirmed); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": h.Navigator.Location()})
}

func (h *Handlers) storeError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "cluster not found"})
		return
	}
	h.Logger.Error("store operation failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
