// Package menu implements the cluster sidebar: the ordered icon list of the
// current workspace and the commands issued from it.
package menu

import (
	"context"
	"fmt"

	"workspace-cluster-manager/pkg/extensions"
	"workspace-cluster-manager/pkg/metrics"
	"workspace-cluster-manager/pkg/models"
	"workspace-cluster-manager/pkg/navigation"
	"workspace-cluster-manager/pkg/store"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	LabelSettings   = "Settings"
	LabelDisconnect = "Disconnect"
	LabelRemove     = "Remove"
)

// ClusterStore is the cluster record store
type ClusterStore interface {
	GetByWorkspaceID(workspaceID string) []models.Cluster
	RemoveByID(id string) error
	MoveIconOrder(workspaceID, movedID, targetID string) error
	Subscribe(fn func()) func()
}

// Workspaces tracks the current workspace
type Workspaces interface {
	Current() models.Workspace
	Subscribe(fn func()) func()
}

// Selection holds the active cluster
type Selection interface {
	ActiveID() (string, bool)
	CompareAndClear(id string) bool
	Subscribe(fn func()) func()
}

// Navigator moves the view to a location
type Navigator interface {
	Navigate(location string)
	Location() string
	IsActiveRoute(location string) bool
	Subscribe(fn func()) func()
}

// Connections closes cluster connections and drops their clients
type Connections interface {
	Disconnect(ctx context.Context, clusterID string) error
	RemoveClient(clusterID string)
}

// ContextFeed reports kubeconfig contexts that are not registered as
// clusters yet
type ContextFeed interface {
	NewContexts() []string
	MarkSeen()
}

// PageRegistry supplies extension icons and resolves their pages
type PageRegistry interface {
	MenuItems() []extensions.MenuItem
	GetByPageTarget(target extensions.PageTarget) (extensions.Page, bool)
}

// Deps are the collaborators of a Controller
type Deps struct {
	Clusters     ClusterStore
	Workspaces   Workspaces
	Selection    Selection
	Navigator    Navigator
	Connections  Connections
	Contexts     ContextFeed
	Pages        PageRegistry
	Confirmer    Confirmer
	Metrics      *metrics.Recorder
	Logger       *zap.Logger
}

// Controller derives the visible cluster list and translates user gestures
// into store, navigation and connection commands.
type Controller struct {
	clusters   ClusterStore
	workspaces Workspaces
	selection  Selection
	nav        Navigator
	conn       Connections
	contexts   ContextFeed
	pages      PageRegistry
	confirmer  Confirmer
	metrics    *metrics.Recorder
	logger     *zap.Logger
}

// New creates a new Controller
func New(deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		clusters:   deps.Clusters,
		workspaces: deps.Workspaces,
		selection:  deps.Selection,
		nav:        deps.Navigator,
		conn:       deps.Connections,
		contexts:   deps.Contexts,
		pages:      deps.Pages,
		confirmer:  deps.Confirmer,
		metrics:    deps.Metrics,
		logger:     logger,
	}
}

// VisibleClusters returns the enabled clusters of a workspace in display order
func (c *Controller) VisibleClusters(workspaceID string) []models.Cluster {
	all := c.clusters.GetByWorkspaceID(workspaceID)
	visible := make([]models.Cluster, 0, len(all))
	for _, cluster := range all {
		if cluster.Enabled && cluster.WorkspaceID == workspaceID {
			visible = append(visible, cluster)
		}
	}
	return visible
}

// Sidebar returns the menu state of the current workspace
func (c *Controller) Sidebar() models.Sidebar {
	ws := c.workspaces.Current()
	activeID, _ := c.selection.ActiveID()

	visible := c.VisibleClusters(ws.ID)
	c.metrics.VisibleClusters(ws.ID, len(visible))

	clusters := make([]models.SidebarCluster, 0, len(visible))
	for _, cluster := range visible {
		clusters = append(clusters, models.SidebarCluster{
			Cluster: cluster.Public(),
			Active:  cluster.ID == activeID,
		})
	}

	return models.Sidebar{
		Workspace:         ws,
		Clusters:          clusters,
		AddClusterEnabled: !ws.IsManaged,
		NewContexts:       c.newContexts(),
		Extensions:        c.ExtensionIcons(),
		Location:          c.nav.Location(),
	}
}

// Watch emits the sidebar now and again after every change of the clusters,
// the workspace, the selection or the location. Bursts of changes are
// coalesced. The channel is closed when ctx is done.
func (c *Controller) Watch(ctx context.Context) <-chan models.Sidebar {
	changed := make(chan struct{}, 1)
	signal := func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	unsubscribe := []func(){
		c.clusters.Subscribe(signal),
		c.workspaces.Subscribe(signal),
		c.selection.Subscribe(signal),
		c.nav.Subscribe(signal),
	}
	signal()

	out := make(chan models.Sidebar)
	go func() {
		defer close(out)
		defer func() {
			for _, fn := range unsubscribe {
				fn()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				select {
				case out <- c.Sidebar():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// SelectCluster shows the cluster's detail view
func (c *Controller) SelectCluster(clusterID string) {
	c.metrics.CommandIssued("select")
	c.nav.Navigate(navigation.ClusterViewURL(clusterID))
}

// AddCluster opens the cluster-creation flow unless the current workspace is
// managed. It reports whether navigation happened.
func (c *Controller) AddCluster() bool {
	if c.workspaces.Current().IsManaged {
		return false
	}
	c.metrics.CommandIssued("add")
	c.nav.Navigate(navigation.AddClusterURL())
	if c.contexts != nil {
		c.contexts.MarkSeen()
	}
	return true
}

func (c *Controller) newContexts() int {
	if c.contexts == nil {
		return 0
	}
	return len(c.contexts.NewContexts())
}

// OpenClusterMenu fills menu with the commands available for cluster and
// shows it.
func (c *Controller) OpenClusterMenu(cluster models.Cluster, menu ContextMenu) {
	id := cluster.ID

	menu.Append(MenuItem{
		Label: LabelSettings,
		OnInvoke: func() {
			c.metrics.CommandIssued("settings")
			c.nav.Navigate(navigation.ClusterSettingsURL(id))
		},
	})

	if cluster.Online {
		menu.Append(MenuItem{
			Label:    LabelDisconnect,
			OnInvoke: func() { c.disconnect(id) },
		})
	}

	if !cluster.IsManaged {
		contextName := cluster.ContextName
		menu.Append(MenuItem{
			Label: LabelRemove,
			OnInvoke: func() {
				c.confirmer.Confirm(ConfirmRequest{
					Message:   fmt.Sprintf("Are you sure want to remove cluster %s?", contextName),
					Subject:   contextName,
					Detail:    id,
					OkLabel:   LabelRemove,
					OnConfirm: func() { c.remove(id) },
				})
			},
		})
	}

	menu.Popup()
}

// leaveIfActive clears the selection and returns to the landing view when
// clusterID is the active cluster.
func (c *Controller) leaveIfActive(clusterID string) {
	if c.selection.CompareAndClear(clusterID) {
		c.nav.Navigate(navigation.LandingURL())
	}
}

func (c *Controller) disconnect(clusterID string) {
	c.metrics.CommandIssued("disconnect")
	c.leaveIfActive(clusterID)

	go func() {
		if err := c.conn.Disconnect(context.Background(), clusterID); err != nil {
			c.logger.Warn("disconnect failed", zap.String("cluster_id", clusterID), zap.Error(err))
		}
	}()
}

func (c *Controller) remove(clusterID string) {
	c.metrics.CommandIssued("remove")
	c.leaveIfActive(clusterID)

	if err := c.clusters.RemoveByID(clusterID); err != nil {
		c.logger.Error("could not remove cluster", zap.String("cluster_id", clusterID), zap.Error(err))
		return
	}
	c.conn.RemoveClient(clusterID)
	c.logger.Info("cluster removed", zap.String("cluster_id", clusterID))
}

// Reorder applies a finished drag gesture. Only confirmed drops onto the list
// change the order; indices refer to the visible list of the current
// workspace.
func (c *Controller) Reorder(result models.DragResult) error {
	if result.Reason != models.DropConfirmed || result.Destination == nil {
		return nil
	}

	ws := c.workspaces.Current().ID
	visible := c.VisibleClusters(ws)
	from, to := result.Source, *result.Destination
	if from < 0 || to < 0 || from >= len(visible) || to >= len(visible) {
		return errors.Wrapf(store.ErrInvalidIndex, "move %d -> %d with %d visible clusters", from, to, len(visible))
	}
	c.metrics.CommandIssued("reorder")
	if from == to {
		return nil
	}

	// hidden clusters keep their slots, so the move is keyed by the ids
	// of the dragged icon and the icon it was dropped on
	return c.clusters.MoveIconOrder(ws, visible[from].ID, visible[to].ID)
}

// ExtensionIcons resolves the extension menu feed. Entries whose page is not
// registered are skipped.
func (c *Controller) ExtensionIcons() []models.ExtensionIcon {
	icons := make([]models.ExtensionIcon, 0)
	for _, item := range c.pages.MenuItems() {
		page, ok := c.pages.GetByPageTarget(item.Target)
		if !ok {
			c.logger.Debug("skipping extension icon without page",
				zap.String("title", item.Title),
				zap.String("extension", item.Target.ExtensionID),
				zap.String("page", item.Target.PageID))
			continue
		}
		icons = append(icons, models.ExtensionIcon{
			Title:  item.Title,
			URL:    page.URL,
			Icon:   item.Icon,
			Active: c.nav.IsActiveRoute(page.URL),
		})
	}
	return icons
}

// OpenExtensionPage navigates to a registered extension page
func (c *Controller) OpenExtensionPage(target extensions.PageTarget) bool {
	page, ok := c.pages.GetByPageTarget(target)
	if !ok {
		return false
	}
	c.metrics.CommandIssued("extension")
	c.nav.Navigate(page.URL)
	return true
}
