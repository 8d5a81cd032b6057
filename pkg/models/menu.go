package models

// DropReason is the outcome of a drag gesture
type DropReason string

const (
	// DropConfirmed is the only reason that reorders icons
	DropConfirmed DropReason = "DROP"
	DropCancelled DropReason = "CANCEL"
)

// DragResult is the result of dragging a cluster icon in the sidebar.
// Indices are relative to the visible, ordered list of the current workspace.
type DragResult struct {
	Reason      DropReason `json:"reason" binding:"required"`
	Source      int        `json:"source"`
	Destination *int       `json:"destination"` // nil when dropped outside the list
}

// SidebarCluster is a cluster icon as shown in the sidebar
type SidebarCluster struct {
	Cluster
	Active bool `json:"active"`
}

// ExtensionIcon is an additional icon contributed by an extension page
type ExtensionIcon struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Icon   string `json:"icon"`
	Active bool   `json:"active"`
}

// Sidebar is the derived state of the cluster menu for the current workspace
type Sidebar struct {
	Workspace         Workspace        `json:"workspace"`
	Clusters          []SidebarCluster `json:"clusters"`
	AddClusterEnabled bool             `json:"add_cluster_enabled"`
	NewContexts       int              `json:"new_contexts"` // kubeconfig contexts not added yet
	Extensions        []ExtensionIcon  `json:"extensions"`
	Location          string           `json:"location"`
}

// MenuItemView describes an entry of an open context menu
type MenuItemView struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Confirmation is a pending confirmation prompt
type Confirmation struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
	OkLabel string `json:"ok_label"`
}
